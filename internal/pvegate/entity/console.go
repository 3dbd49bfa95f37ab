package entity

import (
	"strings"

	"github.com/jimyag/pvegate/pkg/apierror"
)

// OpenConsoleRequest 打开控制台
type OpenConsoleRequest struct {
	Node string `form:"node"`
	VMID string `form:"vmid"`
}

// IsValid node 不能为空，vmid 只能是数字
func (r *OpenConsoleRequest) IsValid() error {
	r.Node = strings.TrimSpace(r.Node)
	r.VMID = strings.TrimSpace(r.VMID)
	if r.Node == "" || r.VMID == "" {
		return apierror.WrapError(apierror.ErrValidation, "node and vmid are required", nil)
	}
	for _, c := range r.VMID {
		if c < '0' || c > '9' {
			return apierror.WrapError(apierror.ErrValidation, "vmid must be numeric", nil)
		}
	}
	return nil
}
