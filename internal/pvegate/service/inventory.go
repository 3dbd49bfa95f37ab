package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/apierror"
	"github.com/jimyag/pvegate/pkg/pveclient"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog"
)

// InventoryService 读取上游 VM 列表，不做缓存
type InventoryService struct {
	client pveclient.Caller
}

// NewInventoryService 创建 InventoryService
func NewInventoryService(client pveclient.Caller) *InventoryService {
	return &InventoryService{client: client}
}

// ListVMs 列出可见的虚拟机和容器（排除模板）
// 上游 401 返回 ErrUpstreamRejected；其他错误只记录日志并返回空列表
func (s *InventoryService) ListVMs(ctx context.Context, sess entity.Session) ([]entity.VM, error) {
	logger := zerolog.Ctx(ctx)

	rows, err := s.fetch(ctx, sess)
	if err != nil {
		if errors.Is(err, apierror.ErrUpstreamRejected) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("Failed to list VMs")
		return []entity.VM{}, nil
	}

	vms := make([]entity.VM, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		if !entity.SupportedVMType(row.Type) || bool(row.Template) {
			continue
		}
		if err := row.Validate(); err != nil {
			logger.Warn().Err(err).Str("id", row.ID).Msg("Dropping incomplete resource row")
			continue
		}
		vm, err := resourceRowToVM(row)
		if err != nil {
			logger.Warn().Err(err).Str("id", row.ID).Msg("Failed to convert resource row")
			continue
		}
		vms = append(vms, *vm)
	}
	return vms, nil
}

// StatusSnapshot 批量操作前的状态快照 (node, vmid) -> VM
// 上游 401 返回 ErrUpstreamRejected；其他错误返回空快照，所有目标都按状态未知处理
func (s *InventoryService) StatusSnapshot(ctx context.Context, sess entity.Session) (entity.StatusSnapshot, error) {
	snapshot := entity.StatusSnapshot{}

	rows, err := s.fetch(ctx, sess)
	if err != nil {
		if errors.Is(err, apierror.ErrUpstreamRejected) {
			return nil, err
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Status pre-fetch failed; skip rules disabled for this batch")
		return snapshot, nil
	}

	for _, row := range rows {
		if row.Validate() != nil {
			continue
		}
		vm, err := resourceRowToVM(&row)
		if err != nil {
			continue
		}
		snapshot[entity.StatusKey{Node: vm.Node, VMID: strconv.Itoa(vm.VMID)}] = *vm
	}
	return snapshot, nil
}

func (s *InventoryService) fetch(ctx context.Context, sess entity.Session) ([]pveclient.ResourceRow, error) {
	resp, err := s.client.Call(ctx, sess.Endpoint(), &pveclient.Request{
		Method:      http.MethodGet,
		Path:        pveclient.PathClusterResources,
		Credentials: sess.Credentials(),
		Params:      url.Values{"type": {"vm"}},
	})
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrUpstreamUnavailable, "Failed to list cluster resources", err)
	}
	if resp.Unauthorized() {
		return nil, apierror.WrapError(apierror.ErrUpstreamRejected, "Cluster resource listing was rejected", nil)
	}
	if !resp.OK() {
		return nil, apierror.WrapError(apierror.ErrUpstreamUnavailable,
			fmt.Sprintf("Cluster resource listing returned HTTP %d: %s", resp.StatusCode, resp.Preview(300)), nil)
	}

	rows, err := pveclient.DecodeData[[]pveclient.ResourceRow](resp)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrIntegrity, "Failed to decode cluster resources", err)
	}
	return rows, nil
}

// resourceRowToVM 将 pveclient.ResourceRow 转换为 entity.VM
func resourceRowToVM(row *pveclient.ResourceRow) (*entity.VM, error) {
	vm := &entity.VM{}
	if err := copier.Copy(vm, row); err != nil {
		return nil, err
	}
	return vm, nil
}
