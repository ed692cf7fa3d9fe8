package dto

// QuotaDecision 一次配额判定的完整结果，不落库
type QuotaDecision struct {
	CanUpload       bool   `json:"can_upload"`
	Reason          string `json:"reason"`
	VideosUsed      int    `json:"videos_used"`
	ImagesUsed      int    `json:"images_used"`
	VideosRemaining int    `json:"videos_remaining"`
	ImagesRemaining int    `json:"images_remaining"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
}

// QuotaSummary 两个类别共享同一次用量快照的总览，前端配额页用
type QuotaSummary struct {
	VideosUsed      int    `json:"videos_used"`
	ImagesUsed      int    `json:"images_used"`
	VideosRemaining int    `json:"videos_remaining"`
	ImagesRemaining int    `json:"images_remaining"`
	CanUploadVideo  bool   `json:"can_upload_video"`
	CanUploadImage  bool   `json:"can_upload_image"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
}
