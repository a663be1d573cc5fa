package transfer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Tkdue/magicsearch/internal/asset"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoAssets = errors.New("transfer: no assets given")
	ErrNoSink   = errors.New("transfer: destination is required")
)

var errNoUrl = errors.New("asset has no primary url")

// Sink stores one payload under name and returns where it ended up.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

type Downloader interface {
	Download(ctx context.Context, rawUrl string) ([]byte, error)
}

// Outcome is the result of transferring one asset.
type Outcome struct {
	AssetRef     string         `json:"assetRef"`
	Provider     asset.Provider `json:"provider"`
	FileName     string         `json:"fileName"`
	Location     string         `json:"location,omitempty"`
	Succeeded    bool           `json:"succeeded"`
	BytesWritten int            `json:"bytesWritten"`
	ErrorDetail  string         `json:"errorDetail,omitempty"`
}

type Report struct {
	RunId     uuid.UUID `json:"runId"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Observer is told about every outcome as soon as it is known. Calls are
// serialized.
type Observer func(run uuid.UUID, o Outcome)

type Pipeline struct {
	fetch     Downloader
	throttle  Throttle
	log       *zap.Logger
	mu        sync.Mutex
	observers []Observer
}

func New(fetch Downloader, throttle Throttle, logger *zap.Logger) *Pipeline {
	if throttle == nil {
		throttle = NewBatchThrottle()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{fetch: fetch, throttle: throttle, log: logger.Named("transfer")}
}

func (p *Pipeline) Observe(o Observer) {
	p.mu.Lock()
	p.observers = append(p.observers, o)
	p.mu.Unlock()
}

// TransferAll downloads every asset and writes it to sink. Assets move in
// batches of the throttle width; a failed asset never stops the others.
// Errors are returned only for unusable input.
func (p *Pipeline) TransferAll(ctx context.Context, assets []asset.Asset, sink Sink) (*Report, error) {
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}
	if sink == nil {
		return nil, ErrNoSink
	}
	run := uuid.New()
	start := time.Now()
	names := uniqueNames(assets)
	outcomes := make([]Outcome, len(assets))
	width := p.throttle.Width()

	for from, batch := 0, 0; from < len(assets); from, batch = from+width, batch+1 {
		to := min(from+width, len(assets))
		if err := p.throttle.Wait(ctx, batch); err != nil {
			for i := from; i < len(assets); i++ {
				outcomes[i] = failure(assets[i], names[i], err)
				p.notify(run, outcomes[i])
			}
			break
		}
		var g errgroup.Group
		for i := from; i < to; i++ {
			g.Go(func() error {
				outcomes[i] = p.transfer(ctx, assets[i], names[i], sink)
				p.notify(run, outcomes[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	report := &Report{RunId: run, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Succeeded {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	p.log.Info("transfer complete",
		zap.Stringer("run", run),
		zap.Int("total", len(assets)),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("took", time.Since(start)))
	return report, nil
}

// TransferOne moves a single asset without batching. It reports success
// only; failures are logged.
func (p *Pipeline) TransferOne(ctx context.Context, a asset.Asset, sink Sink) bool {
	if sink == nil {
		p.log.Warn("transfer skipped", zap.String("asset", a.Id), zap.Error(ErrNoSink))
		return false
	}
	o := p.transfer(ctx, a, FileName(a), sink)
	p.notify(uuid.New(), o)
	return o.Succeeded
}

func (p *Pipeline) transfer(ctx context.Context, a asset.Asset, name string, sink Sink) Outcome {
	if a.PrimaryUrl == "" {
		return p.failed(a, name, errNoUrl)
	}
	data, err := p.fetch.Download(ctx, a.PrimaryUrl)
	if err != nil {
		return p.failed(a, name, err)
	}
	location, err := sink.Put(ctx, name, data)
	if err != nil {
		return p.failed(a, name, err)
	}
	p.log.Debug("stored", zap.String("asset", a.Id), zap.String("location", location), zap.Int("bytes", len(data)))
	return Outcome{
		AssetRef:     a.Id,
		Provider:     a.Provider,
		FileName:     name,
		Location:     location,
		Succeeded:    true,
		BytesWritten: len(data),
	}
}

func (p *Pipeline) failed(a asset.Asset, name string, err error) Outcome {
	p.log.Warn("transfer failed", zap.String("asset", a.Id), zap.String("provider", string(a.Provider)), zap.String("url", a.PrimaryUrl), zap.Error(err))
	return failure(a, name, err)
}

func failure(a asset.Asset, name string, err error) Outcome {
	return Outcome{AssetRef: a.Id, Provider: a.Provider, FileName: name, ErrorDetail: err.Error()}
}

func (p *Pipeline) notify(run uuid.UUID, o Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, fn := range p.observers {
		fn(run, o)
	}
}
