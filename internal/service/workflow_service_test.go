package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/Mamypopo/FlowTrak/internal/model"
	"github.com/Mamypopo/FlowTrak/internal/realtime"
	"github.com/Mamypopo/FlowTrak/internal/repository"
)

// ── 测试辅助 ──

type workflowFixture struct {
	svc      WorkflowService
	repo     *repository.Repository
	cpRepo   *mockCheckpointRepo
	actRepo  *mockActivityLogRepo
	hub      *realtime.Hub
	workID   string
	actorA   *Actor // dept-a 的 STAFF
	actorB   *Actor // dept-b 的 STAFF
	admin    *Actor // 无部门归属的 ADMIN
	outsider *Actor // 无关部门的 STAFF
}

// setupWorkflowFixture 构造一个三环节串行工单：
// cp-1(dept-a) → cp-2(dept-b) → cp-3(dept-a)，全部 PENDING
func setupWorkflowFixture() *workflowFixture {
	cpRepo := newMockCheckpointRepo()
	actRepo := newMockActivityLogRepo()
	userRepo := newMockUserRepo()
	woRepo := newMockWorkOrderRepo(cpRepo)
	repo := &repository.Repository{
		User:        userRepo,
		Department:  newMockDeptRepo(),
		Template:    newMockTemplateRepo(),
		WorkOrder:   woRepo,
		Checkpoint:  cpRepo,
		Comment:     newMockCommentRepo(),
		ActivityLog: actRepo,
	}

	deptA := "dept-a"
	userRepo.Create(context.Background(), &model.User{
		UserID: "user-a", Username: "alice", Name: "甲员工", Role: model.RoleStaff, DepartmentID: &deptA,
	})
	deptB := "dept-b"
	userRepo.Create(context.Background(), &model.User{
		UserID: "user-b", Username: "bob", Name: "乙员工", Role: model.RoleStaff, DepartmentID: &deptB,
	})
	userRepo.Create(context.Background(), &model.User{
		UserID: "admin-1", Username: "root", Name: "管理员", Role: model.RoleAdmin,
	})

	wo := &model.WorkOrder{WorkOrderID: "wo-1", Title: "展厅布线工程", Company: "测试公司", Priority: model.PriorityMedium}
	woRepo.CreateWithCheckpoints(context.Background(), wo, []model.Checkpoint{
		{CheckpointID: "cp-1", Name: "现场勘察", OwnerDeptID: "dept-a", Order: 1, Status: model.StatusPending},
		{CheckpointID: "cp-2", Name: "线路铺设", OwnerDeptID: "dept-b", Order: 2, Status: model.StatusPending},
		{CheckpointID: "cp-3", Name: "验收测试", OwnerDeptID: "dept-a", Order: 3, Status: model.StatusPending},
	})

	logger := zap.NewNop()
	hub := realtime.NewHub(logger)
	activity := NewActivityService(repo, logger)
	svc := NewWorkflowService(repo, NewGuard(), activity, hub, logger)

	return &workflowFixture{
		svc:      svc,
		repo:     repo,
		cpRepo:   cpRepo,
		actRepo:  actRepo,
		hub:      hub,
		workID:   "wo-1",
		actorA:   &Actor{UserID: "user-a", Role: model.RoleStaff, DepartmentID: "dept-a"},
		actorB:   &Actor{UserID: "user-b", Role: model.RoleStaff, DepartmentID: "dept-b"},
		admin:    &Actor{UserID: "admin-1", Role: model.RoleAdmin},
		outsider: &Actor{UserID: "user-x", Role: model.RoleStaff, DepartmentID: "dept-x"},
	}
}

// ── start 流转 ──

func TestWorkflow_Start_Success(t *testing.T) {
	f := setupWorkflowFixture()

	resp, err := f.svc.ApplyTransition(context.Background(), f.actorA, "cp-1", ActionStart)
	if err != nil {
		t.Fatalf("start 应成功: %v", err)
	}
	if resp.Status != model.StatusProcessing {
		t.Errorf("期望状态 PROCESSING，实际=%s", resp.Status)
	}
	if resp.StartedAt == nil {
		t.Error("start 应记录开始时间")
	}
	if resp.EndedAt != nil {
		t.Error("start 不应记录结束时间")
	}
}

func TestWorkflow_Start_RecordsActivity(t *testing.T) {
	f := setupWorkflowFixture()

	if _, err := f.svc.ApplyTransition(context.Background(), f.actorA, "cp-1", ActionStart); err != nil {
		t.Fatalf("start 应成功: %v", err)
	}

	entries, err := f.actRepo.ListByWorkOrder(context.Background(), f.workID, 10)
	if err != nil {
		t.Fatalf("读取日志失败: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("期望 1 条日志，实际=%d", len(entries))
	}
	if entries[0].Action != model.ActionCheckpointStart {
		t.Errorf("期望动作 CHECKPOINT_START，实际=%s", entries[0].Action)
	}
	want := "展厅布线工程 - 现场勘察: start"
	if entries[0].Details != want {
		t.Errorf("期望 details=%q，实际=%q", want, entries[0].Details)
	}
	if entries[0].WorkOrderID == nil || *entries[0].WorkOrderID != f.workID {
		t.Error("日志应显式关联工单")
	}
}

func TestWorkflow_Start_DoubleStart(t *testing.T) {
	f := setupWorkflowFixture()

	if _, err := f.svc.ApplyTransition(context.Background(), f.actorA, "cp-1", ActionStart); err != nil {
		t.Fatalf("首次 start 应成功: %v", err)
	}

	_, err := f.svc.ApplyTransition(context.Background(), f.actorA, "cp-1", ActionStart)
	var invalidErr *InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("重复 start 应返回 InvalidTransitionError，实际: %v", err)
	}
	if invalidErr.CurrentStatus != model.StatusProcessing {
		t.Errorf("期望当前状态 PROCESSING，实际=%s", invalidErr.CurrentStatus)
	}
}

// ── 串行门禁 ──

func TestWorkflow_Start_BlockedByPredecessor(t *testing.T) {
	f := setupWorkflowFixture()

	_, err := f.svc.ApplyTransition(context.Background(), f.actorB, "cp-2", ActionStart)
	var blockedErr *BlockedError
	if !errors.As(err, &blockedErr) {
		t.Fatalf("前序未完成时 start 应返回 BlockedError，实际: %v", err)
	}
	if blockedErr.BlockingName != "现场勘察" {
		t.Errorf("期望阻塞者为现场勘察，实际=%s", blockedErr.BlockingName)
	}
}

func TestWorkflow_Start_BlockedUntilAllPredecessorsCompleted(t *testing.T) {
	f := setupWorkflowFixture()
	ctx := context.Background()

	// cp-1 进行中仍然阻塞 cp-2
	mustTransition(t, f.svc, f.actorA, "cp-1", ActionStart)
	var blockedErr *BlockedError
	if _, err := f.svc.ApplyTransition(ctx, f.actorB, "cp-2", ActionStart); !errors.As(err, &blockedErr) {
		t.Fatalf("前序进行中 start 应返回 BlockedError，实际: %v", err)
	}

	// cp-1 完成后 cp-2 解除阻塞
	mustTransition(t, f.svc, f.actorA, "cp-1", ActionComplete)
	if _, err := f.svc.ApplyTransition(ctx, f.actorB, "cp-2", ActionStart); err != nil {
		t.Fatalf("前序完成后 start 应成功: %v", err)
	}
}

func TestWorkflow_Start_ReturnedPredecessorBlocks(t *testing.T) {
	f := setupWorkflowFixture()
	ctx := context.Background()

	// cp-1 被退回后，cp-2 仍被阻塞（门禁每次实时计算）
	mustTransition(t, f.svc, f.actorA, "cp-1", ActionStart)
	mustTransition(t, f.svc, f.actorA, "cp-1", ActionReturn)

	_, err := f.svc.ApplyTransition(ctx, f.actorB, "cp-2", ActionStart)
	var blockedErr *BlockedError
	if !errors.As(err, &blockedErr) {
		t.Fatalf("前序被退回时 start 应返回 BlockedError，实际: %v", err)
	}
}

// ── 授权 ──

func TestWorkflow_Forbidden_AllActions(t *testing.T) {
	f := setupWorkflowFixture()
	ctx := context.Background()

	for _, action := range []Action{ActionStart, ActionComplete, ActionReturn, ActionProblem} {
		_, err := f.svc.ApplyTransition(ctx, f.outsider, "cp-1", action)
		if !errors.Is(err, ErrCheckpointForbidden) {
			t.Errorf("无关部门执行 %s 应返回 ErrCheckpointForbidden，实际: %v", action, err)
		}
	}
}

func TestWorkflow_Forbidden_BeforeStateCheck(t *testing.T) {
	f := setupWorkflowFixture()

	// cp-1 是 PENDING，complete 的状态前置条件也不满足——
	// 但未授权的调用方必须先收到授权错误，而非状态细节
	_, err := f.svc.ApplyTransition(context.Background(), f.actorB, "cp-1", ActionComplete)
	if !errors.Is(err, ErrCheckpointForbidden) {
		t.Fatalf("期望 ErrCheckpointForbidden，实际: %v", err)
	}
}

func TestWorkflow_AdminBypassesDepartment(t *testing.T) {
	f := setupWorkflowFixture()

	if _, err := f.svc.ApplyTransition(context.Background(), f.admin, "cp-1", ActionStart); err != nil {
		t.Fatalf("ADMIN 无部门归属也应可流转: %v", err)
	}
}

// ── 终态与异常路径 ──

func TestWorkflow_TerminalStatesRejectAllActions(t *testing.T) {
	f := setupWorkflowFixture()
	ctx := context.Background()

	mustTransition(t, f.svc, f.actorA, "cp-1", ActionStart)
	mustTransition(t, f.svc, f.actorA, "cp-1", ActionProblem)

	for _, action := range []Action{ActionStart, ActionComplete, ActionReturn, ActionProblem} {
		_, err := f.svc.ApplyTransition(ctx, f.actorA, "cp-1", action)
		var invalidErr *InvalidTransitionError
		if !errors.As(err, &invalidErr) {
			t.Errorf("PROBLEM 状态执行 %s 应返回 InvalidTransitionError，实际: %v", action, err)
		}
	}
}

func TestWorkflow_NotFound(t *testing.T) {
	f := setupWorkflowFixture()

	_, err := f.svc.ApplyTransition(context.Background(), f.actorA, "no-such-cp", ActionStart)
	if !errors.Is(err, ErrCheckpointNotFound) {
		t.Fatalf("期望 ErrCheckpointNotFound，实际: %v", err)
	}
}

// ── 完整流程 ──

func TestWorkflow_FullSequence(t *testing.T) {
	f := setupWorkflowFixture()
	ctx := context.Background()

	steps := []struct {
		actor  *Actor
		cpID   string
		action Action
	}{
		{f.actorA, "cp-1", ActionStart},
		{f.actorA, "cp-1", ActionComplete},
		{f.actorB, "cp-2", ActionStart},
		{f.actorB, "cp-2", ActionComplete},
		{f.actorA, "cp-3", ActionStart},
		{f.actorA, "cp-3", ActionComplete},
	}
	for _, step := range steps {
		if _, err := f.svc.ApplyTransition(ctx, step.actor, step.cpID, step.action); err != nil {
			t.Fatalf("%s %s 应成功: %v", step.cpID, step.action, err)
		}
	}

	cps, err := f.cpRepo.ListByWorkOrder(ctx, f.workID)
	if err != nil {
		t.Fatalf("读取检查点失败: %v", err)
	}
	for i := range cps {
		cp := &cps[i]
		if cp.Status != model.StatusCompleted {
			t.Errorf("%s 期望 COMPLETED，实际=%s", cp.CheckpointID, cp.Status)
		}
		if cp.StartedAt == nil || cp.EndedAt == nil {
			t.Fatalf("%s 应同时具有开始与结束时间", cp.CheckpointID)
		}
		if cp.EndedAt.Before(*cp.StartedAt) {
			t.Errorf("%s 结束时间早于开始时间", cp.CheckpointID)
		}
	}

	// 6 次流转 = 6 条日志
	if got := len(mustList(t, f.actRepo, f.workID)); got != 6 {
		t.Errorf("期望 6 条日志，实际=%d", got)
	}
}

// ── 并发流转 ──

func TestWorkflow_ConcurrentStart_ExactlyOneSucceeds(t *testing.T) {
	f := setupWorkflowFixture()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = f.svc.ApplyTransition(ctx, f.actorA, "cp-1", ActionStart)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var invalidErr *InvalidTransitionError
		if !errors.As(err, &invalidErr) && !errors.Is(err, ErrCheckpointConflict) {
			t.Errorf("并发失败方应收到状态或冲突错误，实际: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("期望恰好 1 次成功，实际=%d", successes)
	}

	cp, _ := f.cpRepo.GetByID(ctx, "cp-1")
	if cp.Status != model.StatusProcessing {
		t.Errorf("期望最终状态 PROCESSING，实际=%s", cp.Status)
	}
	if got := f.actRepo.countByAction(model.ActionCheckpointStart); got != 1 {
		t.Errorf("期望恰好 1 条 CHECKPOINT_START 日志，实际=%d", got)
	}
}

func TestWorkflow_ConcurrentStart_AcrossInstances(t *testing.T) {
	// 两个独立 Service 实例共享存储（模拟多进程部署）：
	// 进程内锁不生效，由存储层版本号保证恰好一次成功
	f := setupWorkflowFixture()
	ctx := context.Background()

	logger := zap.NewNop()
	activity := NewActivityService(f.repo, logger)
	svc2 := NewWorkflowService(f.repo, NewGuard(), activity, realtime.NewHub(logger), logger)

	var wg sync.WaitGroup
	var err1, err2 error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err1 = f.svc.ApplyTransition(ctx, f.actorA, "cp-1", ActionStart)
	}()
	go func() {
		defer wg.Done()
		_, err2 = svc2.ApplyTransition(ctx, f.actorA, "cp-1", ActionStart)
	}()
	wg.Wait()

	successes := 0
	for _, err := range []error{err1, err2} {
		if err == nil {
			successes++
			continue
		}
		var invalidErr *InvalidTransitionError
		if !errors.As(err, &invalidErr) && !errors.Is(err, ErrCheckpointConflict) {
			t.Errorf("失败方应收到状态或冲突错误，实际: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("期望恰好 1 次成功，实际=%d", successes)
	}
	if got := f.actRepo.countByAction(model.ActionCheckpointStart); got != 1 {
		t.Errorf("期望恰好 1 条 CHECKPOINT_START 日志，实际=%d", got)
	}
}

// ── complete 回填 ──

func TestWorkflow_Complete_BackfillsStartedAt(t *testing.T) {
	f := setupWorkflowFixture()
	ctx := context.Background()

	// 模拟历史数据：进行中但缺失开始时间
	f.cpRepo.add(&model.Checkpoint{
		CheckpointID: "cp-legacy", WorkOrderID: f.workID, Name: "历史环节",
		OwnerDeptID: "dept-a", Order: 0, Status: model.StatusProcessing, Version: 1,
	})

	resp, err := f.svc.ApplyTransition(ctx, f.actorA, "cp-legacy", ActionComplete)
	if err != nil {
		t.Fatalf("complete 应成功: %v", err)
	}
	if resp.StartedAt == nil {
		t.Fatal("complete 应回填缺失的开始时间")
	}
	if resp.EndedAt == nil {
		t.Fatal("complete 应记录结束时间")
	}
	if *resp.StartedAt != *resp.EndedAt {
		t.Errorf("回填时开始时间应等于结束时间: started=%s ended=%s", *resp.StartedAt, *resp.EndedAt)
	}
}

// ── 实时广播 ──

func TestWorkflow_Transition_Broadcasts(t *testing.T) {
	f := setupWorkflowFixture()

	sub := newRecordingSubscriber(8)
	f.hub.Subscribe(sub, f.workID)

	mustTransition(t, f.svc, f.actorA, "cp-1", ActionStart)

	events := sub.eventNames()
	if len(events) != 2 {
		t.Fatalf("期望 2 个事件，实际=%d (%v)", len(events), events)
	}
	if events[0] != realtime.EventCheckpointUpdated || events[1] != realtime.EventActivityNew {
		t.Errorf("期望 checkpoint:updated 后跟 activity:new，实际=%v", events)
	}
}

// ── 辅助函数 ──

func mustTransition(t *testing.T, svc WorkflowService, actor *Actor, cpID string, action Action) {
	t.Helper()
	if _, err := svc.ApplyTransition(context.Background(), actor, cpID, action); err != nil {
		t.Fatalf("%s %s 应成功: %v", cpID, action, err)
	}
}

func mustList(t *testing.T, repo *mockActivityLogRepo, workOrderID string) []model.ActivityLog {
	t.Helper()
	entries, err := repo.ListByWorkOrder(context.Background(), workOrderID, 100)
	if err != nil {
		t.Fatalf("读取日志失败: %v", err)
	}
	return entries
}

// recordingSubscriber 记录收到的事件（实现 realtime.Subscriber）
type recordingSubscriber struct {
	mu   sync.Mutex
	msgs [][]byte
	cap  int
}

func newRecordingSubscriber(capacity int) *recordingSubscriber {
	return &recordingSubscriber{cap: capacity}
}

func (r *recordingSubscriber) Deliver(msg []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) >= r.cap {
		return false
	}
	r.msgs = append(r.msgs, msg)
	return true
}

func (r *recordingSubscriber) eventNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, raw := range r.msgs {
		names = append(names, eventNameOf(raw))
	}
	return names
}

func eventNameOf(raw []byte) string {
	// 信封为 {"event":"...","data":...}，取 event 字段即可
	var env struct {
		Event string `json:"event"`
	}
	_ = json.Unmarshal(raw, &env)
	return env.Event
}

// ── 锁回收 ──

func TestWorkflow_LockMapReclaimed(t *testing.T) {
	f := setupWorkflowFixture()
	ctx := context.Background()

	mustTransition(t, f.svc, f.actorA, "cp-1", ActionStart)
	mustTransition(t, f.svc, f.actorA, "cp-1", ActionComplete)

	// 并发竞争也不应残留锁条目
	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.ApplyTransition(ctx, f.actorB, "cp-2", ActionStart)
		}()
	}
	wg.Wait()

	impl := f.svc.(*workflowService)
	impl.mu.Lock()
	remaining := len(impl.locks)
	impl.mu.Unlock()
	if remaining != 0 {
		t.Errorf("流转结束后锁表应为空，实际残留=%d", remaining)
	}
}
