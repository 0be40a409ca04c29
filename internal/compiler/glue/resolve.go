package glue

import (
	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
	"go.uber.org/zap"
)

// unitDoneHook is the synthesized hook component attached when an event's
// path names a unit type directly: the event then fires on unit
// completion. The leading escape token stands in for '%', which cannot
// appear in downstream identifiers.
const unitDoneHook = "0x25_done"

// resolveEvents binds every still-unresolved event to its unit type and
// hook attachment point. Resolution is idempotent: events already resolved
// are skipped, so the pass can run again after more files have loaded.
func (c *Compiler) resolveEvents() error {
	for _, ev := range c.events {
		if ev.Resolved() {
			continue
		}

		// If the path itself names a unit type, the event fires on unit
		// completion. Otherwise the last path component names an explicit
		// hook and the remainder must be a unit.
		info, err := c.driver.LookupType(ev.Path)
		if err == nil && info.Type.IsUnit() {
			ev.Unit = ev.Path
			ev.Hook = ev.Path.Append(unitDoneHook)
		} else {
			ev.Unit = ev.Path.Namespace()
			if ev.Unit.Empty() {
				return compilererrors.NewResolution(compilererrors.CodeMissingUnit,
					"unit type missing in hook '%s'", ev.Path).WithLocation(ev.Location)
			}

			info, err = c.driver.LookupType(ev.Unit)
			if err != nil {
				return compilererrors.NewResolution(compilererrors.CodeUnknownUnit,
					"unknown unit type '%s'", ev.Unit).WithLocation(ev.Location)
			}
			ev.Hook = ev.Path
		}

		ev.UnitType = info.Type
		ev.ModuleID = info.ModuleID
		ev.ModulePath = info.ModulePath

		module := c.modules.get(ev.ModuleID)
		if module == nil {
			return compilererrors.NewResolution(compilererrors.CodeUnknownUnit,
				"module %s not known in grammar module list", ev.ModuleID).WithLocation(ev.Location)
		}
		module.EvtFiles[ev.File] = true

		c.log.Debug("resolved event",
			zap.String("event", ev.Name.String()),
			zap.String("unit", ev.Unit.String()),
			zap.String("hook", ev.Hook.String()))
	}

	return nil
}
