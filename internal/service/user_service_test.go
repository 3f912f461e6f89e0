package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Mamypopo/FlowTrak/internal/dto"
	"github.com/Mamypopo/FlowTrak/internal/model"
	"github.com/Mamypopo/FlowTrak/internal/repository"
)

func setupUserService() (UserService, *mockUserRepo, *mockDeptRepo) {
	userRepo := newMockUserRepo()
	deptRepo := newMockDeptRepo()
	repo := &repository.Repository{User: userRepo, Department: deptRepo}

	deptRepo.Create(context.Background(), &model.Department{
		DepartmentID: "dept-a", Name: "工程部", IsActive: true,
	})

	return NewUserService(repo, zap.NewNop()), userRepo, deptRepo
}

func TestUser_Create_HashesPassword(t *testing.T) {
	svc, userRepo, _ := setupUserService()
	deptA := "dept-a"

	resp, err := svc.Create(context.Background(), "admin-1", &dto.CreateUserRequest{
		Username: "alice", Name: "甲员工", Password: "correct-horse",
		Role: model.RoleStaff, DepartmentID: &deptA,
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	stored, err := userRepo.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("读取用户失败: %v", err)
	}
	if stored.PasswordHash == "correct-horse" {
		t.Fatal("密码不应明文存储")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")); err != nil {
		t.Errorf("存储的哈希应能通过原密码校验: %v", err)
	}
}

func TestUser_Create_UsernameExists(t *testing.T) {
	svc, _, _ := setupUserService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "admin-1", &dto.CreateUserRequest{
		Username: "alice", Name: "甲员工", Password: "password-one", Role: model.RoleStaff,
	}); err != nil {
		t.Fatalf("首次创建应成功: %v", err)
	}
	if _, err := svc.Create(ctx, "admin-1", &dto.CreateUserRequest{
		Username: "alice", Name: "另一人", Password: "password-two", Role: model.RoleStaff,
	}); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("重复用户名期望 ErrUsernameExists，实际: %v", err)
	}
}

func TestUser_Create_UnknownDepartment(t *testing.T) {
	svc, _, _ := setupUserService()
	ghost := "dept-ghost"

	if _, err := svc.Create(context.Background(), "admin-1", &dto.CreateUserRequest{
		Username: "bob", Name: "乙员工", Password: "password-one",
		Role: model.RoleStaff, DepartmentID: &ghost,
	}); !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("未知部门期望 ErrDepartmentNotFound，实际: %v", err)
	}
}

func TestUser_Response_OmitsPassword(t *testing.T) {
	svc, _, _ := setupUserService()

	resp, err := svc.Create(context.Background(), "admin-1", &dto.CreateUserRequest{
		Username: "alice", Name: "甲员工", Password: "correct-horse", Role: model.RoleStaff,
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	// UserResponse 是脱敏结构，编译期即不含密码字段；此处校验基本字段
	if resp.Username != "alice" || resp.Role != model.RoleStaff {
		t.Errorf("响应字段不正确: %+v", resp)
	}
}

func TestUser_Delete_Self(t *testing.T) {
	svc, _, _ := setupUserService()
	ctx := context.Background()

	resp, _ := svc.Create(ctx, "admin-1", &dto.CreateUserRequest{
		Username: "alice", Name: "甲员工", Password: "correct-horse", Role: model.RoleAdmin,
	})

	if err := svc.Delete(ctx, resp.ID, resp.ID); !errors.Is(err, ErrSelfDelete) {
		t.Errorf("删除自己期望 ErrSelfDelete，实际: %v", err)
	}
	if err := svc.Delete(ctx, resp.ID, "admin-1"); err != nil {
		t.Errorf("他人删除应成功: %v", err)
	}
}

func TestUser_Update_Role(t *testing.T) {
	svc, _, _ := setupUserService()
	ctx := context.Background()

	resp, _ := svc.Create(ctx, "admin-1", &dto.CreateUserRequest{
		Username: "alice", Name: "甲员工", Password: "correct-horse", Role: model.RoleStaff,
	})

	newRole := model.RoleManager
	updated, err := svc.Update(ctx, resp.ID, "admin-1", &dto.UpdateUserRequest{Role: &newRole})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if updated.Role != model.RoleManager {
		t.Errorf("角色应已更新，实际=%s", updated.Role)
	}
}

func TestUser_List_FilterByRole(t *testing.T) {
	svc, _, _ := setupUserService()
	ctx := context.Background()

	svc.Create(ctx, "admin-1", &dto.CreateUserRequest{
		Username: "alice", Name: "甲员工", Password: "correct-horse", Role: model.RoleStaff,
	})
	svc.Create(ctx, "admin-1", &dto.CreateUserRequest{
		Username: "bob", Name: "乙经理", Password: "correct-horse", Role: model.RoleManager,
	})

	list, total, err := svc.List(ctx, &dto.UserListRequest{Role: model.RoleManager})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].Username != "bob" {
		t.Errorf("角色过滤结果不正确: %+v", list)
	}
}
