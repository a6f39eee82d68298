package event

// ============================================================================
// Event Names (constants)
// ============================================================================

const (
	GenerationStarted   = "generation.started"
	GenerationCompleted = "generation.completed"
	GenerationFailed    = "generation.failed"
	GenerationCancelled = "generation.cancelled"
	ThreadCreated       = "thread.created"
	ThreadUpdated       = "thread.updated"
	ThreadDeleted       = "thread.deleted"
)

// ============================================================================
// Generation Events
// ============================================================================

// GenerationStartedEvent is emitted when a report generation begins
// streaming on a thread.
type GenerationStartedEvent struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	Model    string `json:"model"`
}

func (e GenerationStartedEvent) EventName() string { return GenerationStarted }

// GenerationCompletedEvent is emitted after the report row is committed.
type GenerationCompletedEvent struct {
	ThreadID string `json:"thread_id"`
	ReportID string `json:"report_id"`
	Sections int    `json:"sections"`
}

func (e GenerationCompletedEvent) EventName() string { return GenerationCompleted }

// GenerationFailedEvent is emitted when a generation ends with an error
// frame. Reason carries the client-facing message, not internal detail.
type GenerationFailedEvent struct {
	ThreadID string `json:"thread_id"`
	Reason   string `json:"reason"`
}

func (e GenerationFailedEvent) EventName() string { return GenerationFailed }

// GenerationCancelledEvent is emitted when a generation is cancelled by
// the user or by client disconnect.
type GenerationCancelledEvent struct {
	ThreadID string `json:"thread_id"`
}

func (e GenerationCancelledEvent) EventName() string { return GenerationCancelled }

// ============================================================================
// Thread Events
// ============================================================================

// ThreadCreatedEvent is emitted when a new thread is created.
type ThreadCreatedEvent struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
}

func (e ThreadCreatedEvent) EventName() string { return ThreadCreated }

// ThreadUpdatedEvent is emitted on rename, archive or bookmark changes.
type ThreadUpdatedEvent struct {
	ThreadID string `json:"thread_id"`
}

func (e ThreadUpdatedEvent) EventName() string { return ThreadUpdated }

// ThreadDeletedEvent is emitted after a thread and its reports are removed.
type ThreadDeletedEvent struct {
	ThreadID string `json:"thread_id"`
}

func (e ThreadDeletedEvent) EventName() string { return ThreadDeleted }
