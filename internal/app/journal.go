package app

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/ayusman/yuletide/internal/plugin"
	"github.com/ayusman/yuletide/internal/scene"
	"github.com/ayusman/yuletide/internal/store"
)

// triggerFor maps the state a transition enters to its binding trigger.
func triggerFor(to scene.State) string {
	if to == scene.Explode {
		return store.TriggerEnterExplode
	}
	return store.TriggerEnterTree
}

// runJournal records transitions and runs their bound plugins. After ctx is
// cancelled the queued transitions are still recorded, without plugin runs.
func (a *App) runJournal(ctx context.Context, journal <-chan scene.Transition) {
	defer a.wg.Done()

	inserted := 0
	for {
		select {
		case t := <-journal:
			if a.record(t, &inserted) {
				a.dispatch(ctx, t)
			}
		case <-ctx.Done():
			for {
				select {
				case t := <-journal:
					a.record(t, &inserted)
				default:
					return
				}
			}
		}
	}
}

// record appends t to the store and prunes the journal now and then.
// It reports whether a store is configured.
func (a *App) record(t scene.Transition, inserted *int) bool {
	s := a.config.Store
	if s == nil {
		return false
	}

	err := s.Transitions().Create(&store.Transition{
		ID:        uuid.NewString(),
		Source:    string(t.Source),
		From:      string(t.From),
		To:        string(t.To),
		Rotation:  t.Rotation,
		CreatedAt: t.At,
	})
	if err != nil {
		log.Printf("Failed to journal transition %s -> %s: %v", t.From, t.To, err)
		return true
	}

	*inserted++
	if *inserted%pruneEvery == 0 {
		if _, err := s.Transitions().Prune(JournalKeep); err != nil {
			log.Printf("Failed to prune journal: %v", err)
		}
	}
	return true
}

// dispatch runs the plugin bound to the state t enters, if any.
func (a *App) dispatch(ctx context.Context, t scene.Transition) {
	trigger := triggerFor(t.To)

	binding, err := a.config.Store.Bindings().GetByTrigger(trigger)
	if err != nil {
		log.Printf("Failed to look up binding for %s: %v", trigger, err)
		return
	}
	if binding == nil || !binding.Enabled {
		return
	}

	p, err := a.pluginMgr.Resolve(binding.PluginName, binding.ActionName)
	if err != nil {
		log.Printf("Binding %s: %v", trigger, err)
		return
	}

	resp, err := a.pluginExec.Execute(ctx, p, &plugin.Request{
		Action:   binding.ActionName,
		Trigger:  trigger,
		From:     string(t.From),
		To:       string(t.To),
		Source:   string(t.Source),
		Rotation: t.Rotation,
		Config:   binding.Config,
	})
	switch {
	case errors.Is(err, context.Canceled):
	case err != nil:
		log.Printf("Plugin %s/%s failed: %v", binding.PluginName, binding.ActionName, err)
	case !resp.Success:
		log.Printf("Plugin %s/%s reported: %s", binding.PluginName, binding.ActionName, resp.Error)
	}
}
