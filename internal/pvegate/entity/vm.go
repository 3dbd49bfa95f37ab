package entity

// VM 类型
const (
	VMTypeQEMU = "qemu"
	VMTypeLXC  = "lxc"
)

// VM 虚拟机或容器，每次读取都来自上游，不做缓存
type VM struct {
	Node   string `json:"node"`   // 所在节点
	VMID   int    `json:"vmid"`   // VM ID
	Status string `json:"status"` // running, stopped, ...
	Name   string `json:"name"`   // 名称
	Type   string `json:"type"`   // qemu 或 lxc
}

// Running 是否在运行
func (v VM) Running() bool {
	return v.Status == "running"
}

// SupportedVMType 是否是可以操作的 VM 类型
func SupportedVMType(t string) bool {
	return t == VMTypeQEMU || t == VMTypeLXC
}

// StatusKey 定位一台 VM 的状态，用于批量操作前的状态快照
type StatusKey struct {
	Node string
	VMID string
}

// StatusSnapshot (node, vmid) -> VM
type StatusSnapshot map[StatusKey]VM

// Lookup 查询 VM，ok 为 false 表示状态未知
func (s StatusSnapshot) Lookup(node, vmid string) (VM, bool) {
	vm, ok := s[StatusKey{Node: node, VMID: vmid}]
	return vm, ok
}

// ListVMsResponse GET /api/vms 的响应
type ListVMsResponse struct {
	VMs []VM `json:"vms"`
}
