package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/apierror"
	"github.com/jimyag/pvegate/pkg/ginx"
	"github.com/rs/zerolog"
)

// InventoryServiceInterface 定义 VM 列表服务的接口
type InventoryServiceInterface interface {
	ListVMs(ctx context.Context, sess entity.Session) ([]entity.VM, error)
}

// BulkServiceInterface 定义批量操作服务的接口
type BulkServiceInterface interface {
	Execute(ctx context.Context, sess entity.Session, req *entity.BulkActionRequest) (*entity.BulkActionResult, error)
}

// ConsoleServiceInterface 定义控制台服务的接口
type ConsoleServiceInterface interface {
	ConsoleURL(req *entity.OpenConsoleRequest) (string, error)
}

// VM 首页、控制台跳转和批量操作
type VM struct {
	inventory InventoryServiceInterface
	bulk      BulkServiceInterface
	console   ConsoleServiceInterface
	sessions  *sessions
}

func NewVM(inventory InventoryServiceInterface, bulk BulkServiceInterface, console ConsoleServiceInterface, sessions *sessions) *VM {
	return &VM{
		inventory: inventory,
		bulk:      bulk,
		console:   console,
		sessions:  sessions,
	}
}

func (v *VM) RegisterRoutes(router gin.IRouter) {
	browser := router.Group("", v.sessions.requireSession(browserMode))
	browser.GET("/", v.Home)
	browser.GET("/open", v.OpenConsole)
	browser.POST("/open", v.OpenConsole)
	browser.POST("/bulk", v.Bulk)

	api := router.Group("/api", v.sessions.requireSession(apiMode))
	api.GET("/vms", ginx.Adapt3(v.ListVMs))
	api.POST("/bulk", ginx.Adapt5(v.BulkAction))
}

// Home 首页：VM 列表以及上一次批量操作的结果
func (v *VM) Home(c *gin.Context) {
	sess := currentSession(c)

	vms, err := v.inventory.ListVMs(c, sess)
	if err != nil {
		v.rejectBrowser(c, sess, err)
		return
	}

	c.HTML(http.StatusOK, "home", &homeView{
		Principal: sess.Principal,
		VMs:       vms,
		Notice:    parseBulkNotice(c.Query),
	})
}

// OpenConsole 跳转到 VM 控制台，参数不合法时回到首页
func (v *VM) OpenConsole(c *gin.Context) {
	var req entity.OpenConsoleRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	target, err := v.console.ConsoleURL(&req)
	if err != nil {
		zerolog.Ctx(c).Debug().Err(err).Msg("Invalid console request")
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, target)
}

// Bulk 浏览器提交的批量操作，结果通过查询参数带回首页
func (v *VM) Bulk(c *gin.Context) {
	sess := currentSession(c)

	var req entity.BulkActionRequest
	if err := c.ShouldBind(&req); err != nil || req.IsValid() != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	result, err := v.bulk.Execute(c, sess, &req)
	if err != nil {
		v.rejectBrowser(c, sess, err)
		return
	}

	resp := result.Response()
	query := url.Values{
		queryBulk:        {string(resp.Action)},
		queryDone:        {strconv.Itoa(resp.Done)},
		queryFailed:      {strconv.Itoa(resp.Failed)},
		querySkipped:     {strconv.Itoa(resp.Skipped)},
		querySuccessList: {strings.Join(resp.SuccessDetails, ";")},
		queryFailList:    {strings.Join(resp.FailureDetails, ";")},
		querySkipList:    {strings.Join(resp.SkipDetails, ";")},
	}
	c.Redirect(http.StatusFound, "/?"+query.Encode())
}

// ListVMs GET /api/vms
func (v *VM) ListVMs(c *gin.Context) (*entity.ListVMsResponse, error) {
	sess := currentSession(c)

	vms, err := v.inventory.ListVMs(c, sess)
	if err != nil {
		return nil, v.rejectAPI(c, sess, err)
	}
	return &entity.ListVMsResponse{VMs: vms}, nil
}

// BulkAction POST /api/bulk
func (v *VM) BulkAction(c *gin.Context, req *entity.BulkActionRequest) (*entity.BulkActionResponse, error) {
	sess := currentSession(c)

	result, err := v.bulk.Execute(c, sess, req)
	if err != nil {
		return nil, v.rejectAPI(c, sess, err)
	}
	return result.Response(), nil
}

// rejectBrowser 上游 401 时清除会话并跳转到 /session-reset；其他错误回到首页
func (v *VM) rejectBrowser(c *gin.Context, sess entity.Session, err error) {
	if errors.Is(err, apierror.ErrUpstreamRejected) {
		zerolog.Ctx(c).Info().Err(err).Msg("Upstream rejected the ticket; resetting session")
		v.sessions.reset(c, sess)
		c.Redirect(http.StatusFound, resetURL(entity.DenyInvalid))
		return
	}
	zerolog.Ctx(c).Error().Err(err).Msg("Request failed")
	c.Redirect(http.StatusFound, "/")
}

// rejectAPI 上游 401 时清除会话，返回 401 并提示跳转
func (v *VM) rejectAPI(c *gin.Context, sess entity.Session, err error) error {
	if !errors.Is(err, apierror.ErrUpstreamRejected) {
		return err
	}
	zerolog.Ctx(c).Info().Err(err).Msg("Upstream rejected the ticket; resetting session")
	v.sessions.reset(c, sess)
	ginx.SetRedirect(c, resetURL(entity.DenyInvalid))
	return apierror.WrapError(apierror.ErrUnauthorized, "The Proxmox ticket is no longer valid.", err)
}
