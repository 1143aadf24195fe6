// Package audit records admin and moderation actions off the request path.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/glauncher/glauncher-api/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions recorded by the admin surface.
const (
	ActionBan               = "ban"
	ActionUnban             = "unban"
	ActionUpdateUser        = "update_user"
	ActionWipe              = "wipe_all_data"
	ActionChatDelete        = "chat_delete"
	ActionChatClear         = "chat_clear"
	ActionChatPrune         = "chat_prune"
	ActionWallDelete        = "wall_delete"
	ActionCosmeticCreate    = "cosmetic_create"
	ActionAchievementCreate = "achievement_create"
	ActionAchievementGrant  = "achievement_grant"
)

const (
	queueSize     = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
)

// Entry is one audited action.
type Entry struct {
	TraceID    string
	ActorID    *int64
	TargetID   *int64
	Action     string
	Request    interface{}
	Response   interface{}
	Error      string
	IP         string
	DurationMs int
}

// Service writes entries asynchronously in batches.
type Service struct {
	db     *gorm.DB
	ch     chan *model.AuditLog
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a Service and starts its writer.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		db:     db,
		ch:     make(chan *model.AuditLog, queueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an entry. When the queue is full the entry is dropped and a
// warning is logged. A nil *Service ignores entries.
func (svc *Service) Log(e Entry) {
	if svc == nil {
		return
	}
	record := &model.AuditLog{
		TraceID:    e.TraceID,
		ActorID:    e.ActorID,
		TargetID:   e.TargetID,
		Action:     e.Action,
		Request:    marshal(e.Request),
		Response:   marshal(e.Response),
		Error:      e.Error,
		IP:         e.IP,
		DurationMs: e.DurationMs,
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit queue full, dropping entry",
			zap.String("action", e.Action),
			zap.String("trace_id", e.TraceID))
	}
}

func marshal(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// Stop flushes queued entries and waits for the writer to exit.
func (svc *Service) Stop(_ context.Context) {
	svc.once.Do(func() { close(svc.stopCh) })
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-svc.ch:
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case rec := <-svc.ch:
					batch = append(batch, rec)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
