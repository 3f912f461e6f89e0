package service

import (
	"testing"

	"github.com/Mamypopo/FlowTrak/internal/model"
)

func TestGuard_AdminAlwaysAllowed(t *testing.T) {
	guard := NewGuard()
	cp := &model.Checkpoint{OwnerDeptID: "dept-a"}
	admin := &Actor{UserID: "root", Role: model.RoleAdmin}

	for _, a := range []Action{ActionStart, ActionComplete, ActionReturn, ActionProblem} {
		if ok, _ := guard.CanApply(admin, cp, a); !ok {
			t.Errorf("ADMIN 对动作 %v 应始终放行", a)
		}
	}
}

func TestGuard_DepartmentMatch(t *testing.T) {
	guard := NewGuard()
	cp := &model.Checkpoint{OwnerDeptID: "dept-a"}

	member := &Actor{UserID: "u1", Role: model.RoleStaff, DepartmentID: "dept-a"}
	if ok, _ := guard.CanApply(member, cp, ActionStart); !ok {
		t.Error("负责部门成员应被放行")
	}

	outsider := &Actor{UserID: "u2", Role: model.RoleStaff, DepartmentID: "dept-b"}
	if ok, reason := guard.CanApply(outsider, cp, ActionStart); ok || reason == "" {
		t.Error("其他部门成员应被拒绝并给出原因")
	}
}

func TestGuard_ManagerNotExempt(t *testing.T) {
	// MANAGER 不享有 ADMIN 的跨部门豁免
	guard := NewGuard()
	cp := &model.Checkpoint{OwnerDeptID: "dept-a"}
	mgr := &Actor{UserID: "m1", Role: model.RoleManager, DepartmentID: "dept-b"}

	if ok, _ := guard.CanApply(mgr, cp, ActionComplete); ok {
		t.Error("非负责部门的 MANAGER 不应被放行")
	}
}

func TestGuard_EmptyDepartmentDenied(t *testing.T) {
	// 未归属部门的用户即使检查点 OwnerDeptID 也为空，仍应拒绝
	guard := NewGuard()
	cp := &model.Checkpoint{OwnerDeptID: ""}
	noDept := &Actor{UserID: "u3", Role: model.RoleStaff}

	if ok, _ := guard.CanApply(noDept, cp, ActionStart); ok {
		t.Error("空部门不应与空 OwnerDeptID 匹配放行")
	}
}
