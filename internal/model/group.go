package model

import "fmt"

// DataGroup 导入/导出的数据分组
type DataGroup string

const (
	GroupEarnings           DataGroup = "earnings"            // 薪资收入
	GroupContributionBases  DataGroup = "contribution_bases"  // 缴费基数
	GroupCategoryAssignment DataGroup = "category_assignment" // 人员类别
	GroupJobAssignment      DataGroup = "job_assignment"      // 岗位信息
	GroupAll                DataGroup = "all"                 // 全部分组
)

// 工作表名固定词表
const (
	SheetInstructions      = "填表说明"
	SheetBasicInfo         = "基本信息"
	SheetEarnings          = "薪资收入"
	SheetContributionBases = "缴费基数"
	SheetCategory          = "人员类别"
	SheetJob               = "岗位信息"
)

// ExpectedSheets 期望出现的工作表（不含填表说明）
func ExpectedSheets() []string {
	return []string{
		SheetBasicInfo,
		SheetEarnings,
		SheetContributionBases,
		SheetCategory,
		SheetJob,
	}
}

// ConcreteGroups 四个具体分组（不含 all）
func ConcreteGroups() []DataGroup {
	return []DataGroup{
		GroupEarnings,
		GroupContributionBases,
		GroupCategoryAssignment,
		GroupJobAssignment,
	}
}

// ParseDataGroup 解析分组标识
func ParseDataGroup(s string) (DataGroup, error) {
	switch DataGroup(s) {
	case GroupEarnings, GroupContributionBases, GroupCategoryAssignment, GroupJobAssignment, GroupAll:
		return DataGroup(s), nil
	default:
		return "", fmt.Errorf("未知的数据分组: %q", s)
	}
}

// ExpandGroups 展开分组选择：all 展开为四个具体分组，去重并保持选择顺序
func ExpandGroups(groups []DataGroup) []DataGroup {
	seen := make(map[DataGroup]struct{}, 4)
	out := make([]DataGroup, 0, 4)

	add := func(g DataGroup) {
		if _, ok := seen[g]; ok {
			return
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}

	for _, g := range groups {
		if g == GroupAll {
			for _, cg := range ConcreteGroups() {
				add(cg)
			}
			continue
		}
		add(g)
	}
	return out
}

// SheetName 分组对应的工作表名
func (g DataGroup) SheetName() string {
	switch g {
	case GroupEarnings:
		return SheetEarnings
	case GroupContributionBases:
		return SheetContributionBases
	case GroupCategoryAssignment:
		return SheetCategory
	case GroupJobAssignment:
		return SheetJob
	default:
		return ""
	}
}

// DisplayName 分组中文名（用于进度与提示信息）
func (g DataGroup) DisplayName() string {
	if name := g.SheetName(); name != "" {
		return name
	}
	if g == GroupAll {
		return "全部分组"
	}
	return string(g)
}

// GroupForSheet 工作表名对应的分组；基本信息与填表说明不属于任何分组
func GroupForSheet(sheetName string) (DataGroup, bool) {
	switch sheetName {
	case SheetEarnings:
		return GroupEarnings, true
	case SheetContributionBases:
		return GroupContributionBases, true
	case SheetCategory:
		return GroupCategoryAssignment, true
	case SheetJob:
		return GroupJobAssignment, true
	default:
		return "", false
	}
}
