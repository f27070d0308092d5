package api

import (
	"sync"
	"time"

	"github.com/vmxmy/salary-system-v3-sub007/internal/importer"
	"github.com/vmxmy/salary-system-v3-sub007/internal/model"
)

// sessionTTL 上传会话保留时长，过期后需要重新上传
const sessionTTL = time.Hour

// uploadSession 一次上传的解析快照
// 重新上传同名文件会生成新的 fileID，旧会话随 TTL 过期。
type uploadSession struct {
	fileID   string
	filename string
	rows     []model.DataRow
	metas    []model.SheetMeta
	parse    *model.ParseResult

	// orch 会话级编排器，失败行保存在其中供重试
	orch *importer.Orchestrator

	expiresAt time.Time
}

type sessionStore struct {
	mu    sync.Mutex
	items map[string]*uploadSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		items: make(map[string]*uploadSession),
	}
}

func (s *sessionStore) put(sess *uploadSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	sess.expiresAt = time.Now().Add(sessionTTL)
	s.items[sess.fileID] = sess
}

func (s *sessionStore) get(fileID string) (*uploadSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[fileID]
	if !ok {
		return nil, false
	}
	if time.Now().After(v.expiresAt) {
		delete(s.items, fileID)
		return nil, false
	}
	return v, true
}

func (s *sessionStore) delete(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, fileID)
}

func (s *sessionStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}
