package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Mamypopo/FlowTrak/internal/model"
	"github.com/Mamypopo/FlowTrak/internal/repository"
	apperrors "github.com/Mamypopo/FlowTrak/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListWithFilters(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if filters != nil {
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if filters.DepartmentID != "" && (u.DepartmentID == nil || *u.DepartmentID != filters.DepartmentID) {
				continue
			}
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	depts   map[string]*model.Department
	members map[string]int64 // departmentID -> 成员数
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{
		depts:   make(map[string]*model.Department),
		members: make(map[string]int64),
	}
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		dept.DepartmentID = "dept-" + dept.Name
	}
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.depts[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range m.depts {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.depts {
		if d.IsActive {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDeptRepo) ListAll(_ context.Context) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.depts {
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.depts, id)
	return nil
}

func (m *mockDeptRepo) CountMembers(_ context.Context, departmentID string) (int64, error) {
	return m.members[departmentID], nil
}

func (m *mockDeptRepo) BatchCountMembers(_ context.Context, departmentIDs []string) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, id := range departmentIDs {
		if n, ok := m.members[id]; ok {
			result[id] = n
		}
	}
	return result, nil
}

// ── Mock TemplateRepository ──

type mockTemplateRepo struct {
	templates map[string]*model.Template
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*model.Template)}
}

func (m *mockTemplateRepo) Create(_ context.Context, tpl *model.Template) error {
	if tpl.TemplateID == "" {
		tpl.TemplateID = "tpl-" + tpl.Name
	}
	m.templates[tpl.TemplateID] = tpl
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id string) (*model.Template, error) {
	if t, ok := m.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTemplateRepo) List(_ context.Context) ([]model.Template, error) {
	var result []model.Template
	for _, t := range m.templates {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTemplateRepo) Update(_ context.Context, tpl *model.Template) error {
	stored, ok := m.templates[tpl.TemplateID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Name = tpl.Name
	return nil
}

func (m *mockTemplateRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.templates, id)
	return nil
}

func (m *mockTemplateRepo) ReplaceCheckpoints(_ context.Context, templateID string, checkpoints []model.TemplateCheckpoint) error {
	tpl, ok := m.templates[templateID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range checkpoints {
		checkpoints[i].TemplateID = templateID
	}
	tpl.Checkpoints = checkpoints
	return nil
}

// ── Mock WorkOrderRepository ──

type mockWorkOrderRepo struct {
	mu          sync.Mutex
	workOrders  map[string]*model.WorkOrder
	attachments []model.Attachment
	// checkpointSink 关联的检查点 mock，CreateWithCheckpoints 写入其中
	checkpointSink *mockCheckpointRepo
}

func newMockWorkOrderRepo(checkpointSink *mockCheckpointRepo) *mockWorkOrderRepo {
	return &mockWorkOrderRepo{
		workOrders:     make(map[string]*model.WorkOrder),
		checkpointSink: checkpointSink,
	}
}

func (m *mockWorkOrderRepo) CreateWithCheckpoints(_ context.Context, wo *model.WorkOrder, checkpoints []model.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wo.WorkOrderID == "" {
		wo.WorkOrderID = "wo-" + wo.Title
	}
	m.workOrders[wo.WorkOrderID] = wo
	for i := range checkpoints {
		checkpoints[i].WorkOrderID = wo.WorkOrderID
		if checkpoints[i].CheckpointID == "" {
			checkpoints[i].CheckpointID = fmt.Sprintf("%s-cp-%d", wo.WorkOrderID, checkpoints[i].Order)
		}
		if checkpoints[i].Version == 0 {
			checkpoints[i].Version = 1
		}
		cp := checkpoints[i]
		cp.WorkOrder = wo
		m.checkpointSink.add(&cp)
	}
	return nil
}

func (m *mockWorkOrderRepo) GetByID(_ context.Context, id string) (*model.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wo, ok := m.workOrders[id]; ok {
		cp := *wo
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWorkOrderRepo) GetDetail(ctx context.Context, id string) (*model.WorkOrder, error) {
	wo, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cps, _ := m.checkpointSink.ListByWorkOrder(ctx, id)
	wo.Checkpoints = cps
	m.mu.Lock()
	for _, att := range m.attachments {
		if att.WorkOrderID == id {
			wo.Attachments = append(wo.Attachments, att)
		}
	}
	m.mu.Unlock()
	return wo, nil
}

func (m *mockWorkOrderRepo) ListWithFilters(ctx context.Context, filters *repository.WorkOrderListFilters, offset, limit int) ([]model.WorkOrder, int64, error) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.workOrders))
	for id, wo := range m.workOrders {
		if filters != nil {
			if filters.Priority != "" && wo.Priority != filters.Priority {
				continue
			}
			if filters.Keyword != "" &&
				!strings.Contains(wo.Title, filters.Keyword) &&
				!strings.Contains(wo.Company, filters.Keyword) {
				continue
			}
		}
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Strings(ids)
	var result []model.WorkOrder
	for _, id := range ids {
		wo, err := m.GetDetail(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *wo)
	}
	return result, int64(len(result)), nil
}

func (m *mockWorkOrderRepo) Delete(_ context.Context, id string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workOrders, id)
	return nil
}

func (m *mockWorkOrderRepo) CreateAttachment(_ context.Context, att *model.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if att.AttachmentID == "" {
		att.AttachmentID = fmt.Sprintf("att-%d", len(m.attachments)+1)
	}
	att.CreatedAt = time.Now()
	m.attachments = append(m.attachments, *att)
	return nil
}

// ── Mock CheckpointRepository ──
//
// UpdateStatus 忠实模拟存储层的版本条件写：
// 版本不匹配返回 ErrOptimisticLock，成功则存储版本自增。
// 并发流转测试依赖这里的互斥与版本判断。

type mockCheckpointRepo struct {
	mu          sync.Mutex
	checkpoints map[string]*model.Checkpoint
}

func newMockCheckpointRepo() *mockCheckpointRepo {
	return &mockCheckpointRepo{checkpoints: make(map[string]*model.Checkpoint)}
}

func (m *mockCheckpointRepo) add(cp *model.Checkpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cp.Version == 0 {
		cp.Version = 1
	}
	m.checkpoints[cp.CheckpointID] = cp
}

func (m *mockCheckpointRepo) GetByID(_ context.Context, id string) (*model.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cp, ok := m.checkpoints[id]; ok {
		copied := *cp
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckpointRepo) ListByWorkOrder(_ context.Context, workOrderID string) ([]model.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Checkpoint
	for _, cp := range m.checkpoints {
		if cp.WorkOrderID == workOrderID {
			result = append(result, *cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].CheckpointID < result[j].CheckpointID
	})
	return result, nil
}

func (m *mockCheckpointRepo) UpdateStatus(_ context.Context, cp *model.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.checkpoints[cp.CheckpointID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != cp.Version {
		return apperrors.ErrOptimisticLock
	}
	stored.Status = cp.Status
	stored.StartedAt = cp.StartedAt
	stored.EndedAt = cp.EndedAt
	stored.UpdatedAt = time.Now()
	stored.Version++
	cp.Version++
	return nil
}

// ── Mock CommentRepository ──

type mockCommentRepo struct {
	mu       sync.Mutex
	comments []*model.Comment
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{}
}

func (m *mockCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if comment.CommentID == "" {
		comment.CommentID = fmt.Sprintf("comment-%d", len(m.comments)+1)
	}
	comment.CreatedAt = time.Now()
	m.comments = append(m.comments, comment)
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.comments {
		if c.CommentID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCommentRepo) ListByCheckpoint(_ context.Context, checkpointID string) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Comment
	for _, c := range m.comments {
		if c.CheckpointID != nil && *c.CheckpointID == checkpointID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCommentRepo) ListByWorkOrder(_ context.Context, workOrderID string) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Comment
	for _, c := range m.comments {
		if c.WorkOrderID != nil && *c.WorkOrderID == workOrderID {
			result = append(result, *c)
		}
	}
	return result, nil
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct {
	mu      sync.Mutex
	entries []*model.ActivityLog
}

func newMockActivityLogRepo() *mockActivityLogRepo {
	return &mockActivityLogRepo{}
}

func (m *mockActivityLogRepo) Create(_ context.Context, entry *model.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ActivityLogID == "" {
		entry.ActivityLogID = fmt.Sprintf("activity-%d", len(m.entries)+1)
	}
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockActivityLogRepo) ListRecent(_ context.Context, limit int) ([]model.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ActivityLog
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, *m.entries[i])
	}
	return result, nil
}

func (m *mockActivityLogRepo) ListByWorkOrder(_ context.Context, workOrderID string, limit int) ([]model.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ActivityLog
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if m.entries[i].WorkOrderID != nil && *m.entries[i].WorkOrderID == workOrderID {
			result = append(result, *m.entries[i])
		}
	}
	return result, nil
}

// countByAction 统计指定动作的日志条数（测试断言用）
func (m *mockActivityLogRepo) countByAction(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}
