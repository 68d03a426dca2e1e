package identity

import "github.com/calderaops/procurehub-backend/pkg/enums"

// Permission names one guarded capability of the engine.
type Permission string

const (
	PermManageCarts    Permission = "carts:manage"
	PermSubmitCarts    Permission = "carts:submit"
	PermApproveOrders  Permission = "orders:approve"
	PermProcureOrders  Permission = "orders:procure"
	PermReceiveShip    Permission = "purchase_orders:receive"
	PermRecordPayments Permission = "purchase_orders:pay"
	PermManageBillback Permission = "billback:manage"
)

var rolePermissions = map[enums.MemberRole][]Permission{
	enums.MemberRoleRequester: {
		PermManageCarts,
		PermSubmitCarts,
	},
	enums.MemberRoleApprover: {
		PermManageCarts,
		PermSubmitCarts,
		PermApproveOrders,
		PermReceiveShip,
	},
	enums.MemberRoleAdmin: {
		PermManageCarts,
		PermSubmitCarts,
		PermApproveOrders,
		PermProcureOrders,
		PermReceiveShip,
		PermRecordPayments,
		PermManageBillback,
	},
}

// Can reports whether the role carries the permission.
func Can(role enums.MemberRole, perm Permission) bool {
	for _, candidate := range rolePermissions[role] {
		if candidate == perm {
			return true
		}
	}
	return false
}
