package dto

// UploadMediaResponse 上传媒体的响应
type UploadMediaResponse struct {
	MediaID int64          `json:"media_id"`
	JobID   int64          `json:"job_id"`
	URL     string         `json:"url"`
	Status  string         `json:"status"`
	Quota   *QuotaDecision `json:"quota,omitempty"`
}

// ShareMediaRequest 分享到公开展示页的请求
type ShareMediaRequest struct {
	Title string `json:"title" binding:"omitempty,max=200"`
}

// ListMediaQuery 媒体列表查询参数
type ListMediaQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
	Category string `form:"category" binding:"omitempty,oneof=video image"`
	Status   string `form:"status" binding:"omitempty,oneof=pending analyzing completed failed"`
}
