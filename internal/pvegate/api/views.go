package api

import (
	"embed"
	"html/template"
	"strconv"
	"strings"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// resetView /session-reset 页面
type resetView struct {
	Title    string
	Message  string
	LoginURL string
}

var resetTitles = map[entity.DenyReason]string{
	entity.DenyMissing: "Session Required",
	entity.DenyExpired: "Session Expired",
	entity.DenyInvalid: "Session Invalid",
}

var resetMessages = map[entity.DenyReason]string{
	entity.DenyMissing: "We couldn't find an active session. Please sign in again to continue.",
	entity.DenyExpired: "Your login session has timed out. Please sign in again to continue.",
	entity.DenyInvalid: "Your Proxmox token is no longer valid. Please sign in again to continue.",
}

func newResetView(reason entity.DenyReason) *resetView {
	view := &resetView{
		Title:    "Session Reset",
		Message:  "Please sign in again.",
		LoginURL: "/login?force=1",
	}
	if title, ok := resetTitles[reason]; ok {
		view.Title = title
		view.Message = resetMessages[reason]
	}
	return view
}

// homeView 首页
type homeView struct {
	Principal string
	VMs       []entity.VM
	Notice    *bulkNotice
}

// bulkNotice 上一次批量操作的结果，来自跳转时的查询参数
type bulkNotice struct {
	Action   string
	Done     int
	Failed   int
	Skipped  int
	Success  []string
	Failures []string
	Skips    []string
}

// bulkNoticeQuery 批量操作结果的查询参数名
const (
	queryBulk        = "bulk"
	queryDone        = "done"
	queryFailed      = "failed"
	querySkipped     = "skipped"
	querySuccessList = "success_list"
	queryFailList    = "fail_list"
	querySkipList    = "skip_list"
)

func parseBulkNotice(get func(string) string) *bulkNotice {
	action := get(queryBulk)
	if action == "" {
		return nil
	}
	count := func(key string) int {
		n, _ := strconv.Atoi(get(key))
		return n
	}
	return &bulkNotice{
		Action:   action,
		Done:     count(queryDone),
		Failed:   count(queryFailed),
		Skipped:  count(querySkipped),
		Success:  splitList(get(querySuccessList)),
		Failures: splitList(get(queryFailList)),
		Skips:    splitList(get(querySkipList)),
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
