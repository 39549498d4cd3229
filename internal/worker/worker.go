package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richhabits/backend/internal/organizations"
	"github.com/richhabits/backend/internal/titlecard"
	"github.com/richhabits/backend/pkg/queue"
)

// Notifier pushes entity-change events to connected clients.
type Notifier interface {
	Publish(orgID uuid.UUID, event string, payload interface{})
}

// TitleCardProcessor renders deferred title cards: load the organization,
// call the render service, persist the resulting URL.
type TitleCardProcessor struct {
	orgs      *organizations.Repository
	generator *titlecard.Generator
	queue     *queue.Queue
	notifier  Notifier
	logger    *zap.Logger
}

// NewTitleCardProcessor creates a title card job processor. notifier may be nil.
func NewTitleCardProcessor(orgs *organizations.Repository, gen *titlecard.Generator, q *queue.Queue, notifier Notifier, logger *zap.Logger) *TitleCardProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TitleCardProcessor{orgs: orgs, generator: gen, queue: q, notifier: notifier, logger: logger}
}

// Process executes one title card job.
func (p *TitleCardProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeTitleCard {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.TitleCardPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	org, err := p.orgs.GetByID(ctx, payload.OrganizationID)
	if err != nil {
		return fmt.Errorf("organization not found: %s", payload.OrganizationID)
	}
	if org.TitleCardURL != nil {
		p.logger.Info("title card already present", zap.String("organization_id", org.ID.String()))
		return nil
	}
	if !org.HasBrandAssets() {
		// Brand assets were removed after the job was queued; nothing to render.
		p.logger.Info("organization missing brand assets, skipping",
			zap.String("organization_id", org.ID.String()))
		return nil
	}

	url, err := p.generator.Generate(ctx, org)
	if err != nil {
		return fmt.Errorf("generate title card: %w", err)
	}
	updated, err := p.orgs.SetTitleCardURL(ctx, org.ID, url)
	if err != nil {
		return fmt.Errorf("persist title card url: %w", err)
	}

	if p.notifier != nil {
		p.notifier.Publish(updated.ID, "organization.updated", updated)
	}

	p.logger.Info("title card rendered",
		zap.String("organization_id", org.ID.String()),
		zap.String("url", url))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *TitleCardProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("title card worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
