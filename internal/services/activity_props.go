package services

// Типизированные properties на каждый тег события.
// Пишутся сервисами при записи активности; рендерер декодирует их
// мягко — отсутствующие поля остаются нулевыми.

type UpdatedProps struct {
	Attributes map[string]any `json:"attributes"`
}

type MemberProps struct {
	UserID     uint  `json:"user_id"`
	SequenceID int64 `json:"sequence_id,omitempty"`
}

type TimeEntryCompletedProps struct {
	Duration      int64 `json:"duration"`
	AddedManually bool  `json:"added_manually,omitempty"`
	SequenceID    int64 `json:"sequence_id,omitempty"`
}

type TimeEntryDeletedProps struct {
	Duration   int64 `json:"duration"`
	UserID     uint  `json:"user_id"`
	SequenceID int64 `json:"sequence_id,omitempty"`
}

type TimeEntryUpdatedProps struct {
	OldDuration int64 `json:"old_duration"`
	NewDuration int64 `json:"new_duration"`
	UserID      uint  `json:"user_id"`
	SequenceID  int64 `json:"sequence_id,omitempty"`
}
