package placement

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	zerrors "github.com/zzenonn/zingest/internal/errors"
)

// DefaultRetryInterval is the fixed wait between split attempts on LockBusy.
const DefaultRetryInterval = time.Second

// Options selects which provisioning steps run.
type Options struct {
	Database        string
	Bucket          string
	ShardingEnabled bool
	PresplitEnabled bool
	FilesChunks     int // Ranges for the files collection
	ChunksChunks    int // Ranges for the chunks collection
}

// Provisioner enables sharding on the GridFS collections and pre-splits them.
type Provisioner struct {
	admin         AdminRunner
	opts          Options
	retryInterval time.Duration
	timer         backoff.Timer
	onRetry       func(namespace string)
}

// NewProvisioner creates a provisioner issuing commands through admin.
func NewProvisioner(admin AdminRunner, opts Options) *Provisioner {
	return &Provisioner{
		admin:         admin,
		opts:          opts,
		retryInterval: DefaultRetryInterval,
	}
}

// ObserveRetries registers fn to be called before every LockBusy retry.
func (p *Provisioner) ObserveRetries(fn func(namespace string)) {
	p.onRetry = fn
}

// Ensure runs the enabled provisioning steps. Any failure other than lock
// contention is returned and must abort the run.
func (p *Provisioner) Ensure(ctx context.Context) error {
	if !p.opts.ShardingEnabled {
		return nil
	}

	filesNamespace := FilesNamespace(p.opts.Database, p.opts.Bucket)
	chunksNamespace := ChunksNamespace(p.opts.Database, p.opts.Bucket)
	log.Infof("Enabling sharding for '%s', '%s'", filesNamespace, chunksNamespace)

	commands := []bson.D{
		{{Key: "enableSharding", Value: p.opts.Database}},
		{
			{Key: "shardCollection", Value: filesNamespace},
			{Key: "key", Value: bson.D{{Key: "_id", Value: 1}}},
			{Key: "unique", Value: true},
		},
		{
			{Key: "shardCollection", Value: chunksNamespace},
			{Key: "key", Value: bson.D{{Key: "files_id", Value: 1}, {Key: "n", Value: 1}}},
			{Key: "unique", Value: true},
		},
	}
	for _, cmd := range commands {
		if _, err := p.admin.RunAdminCommand(ctx, cmd); err != nil {
			return errors.Wrapf(err, "admin command %s", cmd[0].Key)
		}
	}

	if !p.opts.PresplitEnabled {
		return nil
	}

	log.Infof("Pre-splitting '%s' with %d chunks", filesNamespace, p.opts.FilesChunks)
	for _, boundary := range ComputeBoundaries(p.opts.FilesChunks) {
		middle := bson.D{{Key: "_id", Value: boundary}}
		if err := p.SplitAt(ctx, filesNamespace, middle); err != nil {
			return err
		}
	}

	log.Infof("Pre-splitting '%s' with %d chunks", chunksNamespace, p.opts.ChunksChunks)
	for _, boundary := range ComputeBoundaries(p.opts.ChunksChunks) {
		middle := bson.D{{Key: "files_id", Value: boundary}, {Key: "n", Value: 0}}
		if err := p.SplitAt(ctx, chunksNamespace, middle); err != nil {
			return err
		}
	}

	return nil
}

// SplitAt splits namespace at middle. LockBusy replies are retried at a fixed
// interval until the split succeeds or ctx is done; every other error is
// returned immediately.
func (p *Provisioner) SplitAt(ctx context.Context, namespace string, middle bson.D) error {
	cmd := bson.D{
		{Key: "split", Value: namespace},
		{Key: "middle", Value: middle},
	}

	operation := func() error {
		response, err := p.admin.RunAdminCommand(ctx, cmd)
		if err != nil {
			if zerrors.IsLockBusy(err) {
				return err
			}
			return backoff.Permanent(errors.Wrapf(err, "split %s at %v", namespace, middle))
		}
		log.Infof("%s boundary %v response: %v", namespace, middle, response)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Warnf("Waiting on LockBusy response. Sleeping for %s before trying again...", wait)
		if p.onRetry != nil {
			p.onRetry(namespace)
		}
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(p.retryInterval), ctx)
	return backoff.RetryNotifyWithTimer(operation, policy, notify, p.timer)
}
