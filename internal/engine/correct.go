package engine

import (
	"fmt"

	"github.com/cleared-dev/homeledger/internal/ledger"
)

// checkAndCorrect repairs what older or interrupted writes can leave behind:
// extra root accounts, extra settings objects and an old file version.
// Called with the write lock held.
func (e *Engine) checkAndCorrect() error {
	for _, r := range e.store.RootAccounts() {
		if r == e.root {
			continue
		}
		if err := e.mergeRoot(r); err != nil {
			return err
		}
	}

	for _, c := range e.store.Configs() {
		if c == e.config {
			continue
		}
		e.log.Warn().Str("config", c.ID.String()).Msg("removing duplicate settings")
		if err := e.trash(c); err != nil {
			return fmt.Errorf("removing duplicate settings: %w", err)
		}
	}

	if e.config.FileVersion < ledger.CurrentFileVersion {
		from := e.config.FileVersion
		if err := e.updateConfig(func(c *ledger.Config) { c.FileVersion = ledger.CurrentFileVersion }); err != nil {
			return fmt.Errorf("upgrading file version: %w", err)
		}
		e.log.Info().Int("from", from).Int("to", ledger.CurrentFileVersion).Msg("file version upgraded")
	}
	return nil
}

// mergeRoot moves the children of extra under the engine root and trashes it.
func (e *Engine) mergeRoot(extra *ledger.Account) error {
	e.log.Warn().Str("account", extra.ID.String()).Int("children", extra.ChildCount()).Msg("merging duplicate root account")
	for _, child := range extra.Children() {
		if err := child.SetParent(e.root); err != nil {
			return fmt.Errorf("merging root %s: %w", extra.ID, err)
		}
		if err := e.store.UpdateAccount(child); err != nil {
			_ = child.SetParent(extra)
			return fmt.Errorf("merging root %s: %w", extra.ID, persist(err))
		}
	}
	if err := e.trash(extra); err != nil {
		return fmt.Errorf("merging root %s: %w", extra.ID, err)
	}
	return nil
}
