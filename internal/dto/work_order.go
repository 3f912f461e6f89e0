package dto

// ── 工单模块 DTO ──

// CreateWorkOrderRequest 创建工单请求
// 检查点由模板快照生成，创建后工单不再引用模板
type CreateWorkOrderRequest struct {
	Title       string  `json:"title"       binding:"required,min=1,max=255"`
	Company     string  `json:"company"     binding:"required,min=1,max=255"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Priority    string  `json:"priority"    binding:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Deadline    *string `json:"deadline"    binding:"omitempty"` // RFC3339
	TemplateID  string  `json:"template_id" binding:"required,uuid"`
}

// WorkOrderListRequest 工单列表请求
type WorkOrderListRequest struct {
	PaginationRequest
	Priority string `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Keyword  string `form:"keyword"  binding:"omitempty,max=100"`
}

// WorkOrderSummaryResponse 工单列表项响应
type WorkOrderSummaryResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Priority        string     `json:"priority"`
	Deadline        *string    `json:"deadline,omitempty"`
	Creator         *UserBrief `json:"creator,omitempty"`
	TotalCount      int        `json:"total_count"`      // 检查点总数
	CompletedCount  int        `json:"completed_count"`  // 已完成检查点数
	CurrentCheckpoint string   `json:"current_checkpoint,omitempty"` // 当前进行中/待开始的检查点名称
	CreatedAt       string     `json:"created_at"`
}

// WorkOrderDetailResponse 工单详情响应（含有序检查点）
type WorkOrderDetailResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Company     string               `json:"company"`
	Description string               `json:"description,omitempty"`
	Priority    string               `json:"priority"`
	Deadline    *string              `json:"deadline,omitempty"`
	Creator     *UserBrief           `json:"creator,omitempty"`
	Checkpoints []CheckpointResponse `json:"checkpoints"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   string               `json:"created_at"`
}

// AddAttachmentRequest 登记附件元数据请求
// 文件本体由外部对象存储承载，此处只记录引用
type AddAttachmentRequest struct {
	FileName string `json:"file_name" binding:"required,min=1,max=255"`
	FileURL  string `json:"file_url"  binding:"required,url,max=500"`
}

// AttachmentResponse 附件响应
type AttachmentResponse struct {
	ID        string     `json:"id"`
	FileName  string     `json:"file_name"`
	FileURL   string     `json:"file_url"`
	Uploader  *UserBrief `json:"uploader,omitempty"`
	CreatedAt string     `json:"created_at"`
}
