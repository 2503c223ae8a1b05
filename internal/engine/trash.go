package engine

import (
	"errors"

	"github.com/cleared-dev/homeledger/internal/events"
)

// EmptyTrash permanently deletes the trash objects older than the
// configured maximum age. The start and stop events are posted outside the
// write lock, so listeners may call back into the engine.
func (e *Engine) EmptyTrash() error {
	if err := e.ready(); err != nil {
		return err
	}
	e.publish(events.NewMessage(events.ChannelTrash, events.TrashEmptyStarted, e.name))
	defer e.publish(events.NewMessage(events.ChannelTrash, events.TrashEmptyStopped, e.name))

	e.lock.Lock()
	defer e.lock.Unlock()
	if err := e.ready(); err != nil {
		return err
	}

	now := e.now()
	var (
		errs   []error
		purged int
	)
	for _, t := range e.store.TrashObjects() {
		if !t.Expired(now, e.opts.TrashMaxAge) {
			continue
		}
		if err := e.store.PurgeTrash(t); err != nil {
			errs = append(errs, persist(err))
			continue
		}
		purged++
	}
	err := errors.Join(errs...)
	if err != nil {
		e.log.Error().Err(err).Msg("trash purge failed")
	}
	if purged > 0 {
		e.log.Info().Int("purged", purged).Msg("trash emptied")
	}
	return err
}
