package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spacedriveapp/spacedrive-sub003/internal/logging"
	"github.com/spacedriveapp/spacedrive-sub003/internal/metrics"
	"github.com/spacedriveapp/spacedrive-sub003/internal/notify"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/protocol"
	"go.uber.org/zap"
)

// CopySuffix is appended to target file names when copying into the
// source directory, so the copy does not collide with the original.
const CopySuffix = " copy"

// Action is the user-facing transfer operation.
type Action int

const (
	ActionCopy Action = iota
	ActionCut
	ActionDuplicate
)

// String returns the lower-case action name used in toasts and logs.
func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionCut:
		return "cut"
	case ActionDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

func (a Action) isCut() bool { return a == ActionCut }

func (a Action) done() string {
	switch a {
	case ActionCopy:
		return "Copied"
	case ActionCut:
		return "Moved"
	case ActionDuplicate:
		return "Duplicated"
	default:
		return "Done"
	}
}

// Mutator is the slice of the backend client the dispatcher needs.
type Mutator interface {
	CopyFiles(ctx context.Context, req protocol.IndexedTransferRequest) error
	CutFiles(ctx context.Context, req protocol.IndexedTransferRequest) error
	EphemeralCopyFiles(ctx context.Context, req protocol.EphemeralTransferRequest) error
	EphemeralCutFiles(ctx context.Context, req protocol.EphemeralTransferRequest) error
	AssignTag(ctx context.Context, req protocol.TagAssignRequest) error
}

// Dispatcher executes resolved transfer routes, issuing exactly one
// backend mutation per route (one per distinct source location when a
// route spans several). Failures surface as toasts and are never retried;
// partially applied per-location batches are not rolled back.
type Dispatcher struct {
	backend      Mutator
	resolver     *Resolver
	notifier     notify.Notifier
	locationPath LocationPathFunc
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(backend Mutator, resolver *Resolver, notifier notify.Notifier, locationPath LocationPathFunc) *Dispatcher {
	if notifier == nil {
		notifier = notify.Log{}
	}
	if locationPath == nil {
		locationPath = func(int32) (string, bool) { return "", false }
	}
	return &Dispatcher{backend: backend, resolver: resolver, notifier: notifier, locationPath: locationPath}
}

// Drop executes a classified route for a drag payload.
//
// RouteNone aborts without any mutation: for a cut this raises the
// already-exists notice, for a copy it degrades to copy-in-place with a
// distinguishing name suffix.
func (d *Dispatcher) Drop(ctx context.Context, drag DragPayload, route Route, action Action) error {
	switch route.Kind {
	case RouteNone:
		if action.isCut() {
			d.conflictNotice()
			return nil
		}
		return d.copyInPlace(ctx, drag, action)

	case RouteToTag:
		return d.assignTag(ctx, route.TagID, drag.Items, false)

	case RouteTagToLocation:
		return d.dispatchPerLocation(ctx, drag.Items, route, action)

	case RouteLocationToLocation:
		ids, skipped := PartitionIndexed(drag.Items, drag.SourceLocationID)
		d.reportSkipped(skipped)
		if len(ids) == 0 {
			return nil
		}
		return d.runIndexed(ctx, action, route.Kind, protocol.IndexedTransferRequest{
			SourceLocationID:                    drag.SourceLocationID,
			SourcesFilePathIDs:                  ids,
			TargetLocationID:                    route.TargetLocationID,
			TargetLocationRelativeDirectoryPath: route.TargetRelativeDir,
		})

	case RouteEphemeralToEphemeral, RouteEphemeralToLocation:
		sources, skipped := PartitionEphemeral(drag.Items)
		d.reportSkipped(skipped)
		if len(sources) == 0 {
			return nil
		}
		return d.runEphemeral(ctx, action, route.Kind, protocol.EphemeralTransferRequest{
			Sources:   sources,
			TargetDir: route.TargetAbsoluteDir,
		})

	case RouteLocationToEphemeral:
		addrs := ResolveMany(drag.Items)
		sources, err := d.resolver.AbsolutePaths(ctx, filesystemOnly(addrs))
		if err != nil {
			d.notifyError(action, err)
			return err
		}
		if len(sources) == 0 {
			return nil
		}
		return d.runEphemeral(ctx, action, route.Kind, protocol.EphemeralTransferRequest{
			Sources:   sources,
			TargetDir: route.TargetAbsoluteDir,
		})

	default:
		return fmt.Errorf("unhandled route %s", route.Kind)
	}
}

// Paste executes a pending intent against the destination listing.
//
// The returned bool reports whether a mutation was attempted: the caller
// clears the intent once a paste has settled, but a conflict notice leaves
// the intent live so the user can paste elsewhere.
func (d *Dispatcher) Paste(ctx context.Context, intent Intent, dest models.ParentContext) (bool, error) {
	if intent.Kind == IntentIdle || intent.Empty() {
		return false, nil
	}

	action := ActionCopy
	if intent.Kind == IntentCut {
		action = ActionCut
	}

	inPlace := intent.SourceParent.Equal(dest)
	if inPlace && action.isCut() {
		d.conflictNotice()
		return false, nil
	}

	switch dest.Kind {
	case models.ParentLocation:
		if intent.Indexed != nil {
			req := protocol.IndexedTransferRequest{
				SourceLocationID:                    intent.Indexed.LocationID,
				SourcesFilePathIDs:                  intent.Indexed.FilePathIDs,
				TargetLocationID:                    dest.LocationID,
				TargetLocationRelativeDirectoryPath: dest.RelativeDir,
			}
			if inPlace {
				// Copy-in-place is legal: distinguish the copies by name.
				suffix := CopySuffix
				req.TargetFileNameSuffix = &suffix
			}
			return true, d.runIndexed(ctx, action, RouteLocationToLocation, req)
		}
		// Ephemeral sources into an indexed destination go by absolute
		// path; the backend indexes them on arrival.
		root, ok := d.locationPath(dest.LocationID)
		if !ok {
			err := fmt.Errorf("location %d root path unknown", dest.LocationID)
			d.notifyError(action, err)
			return false, err
		}
		return true, d.runEphemeral(ctx, action, RouteEphemeralToLocation, protocol.EphemeralTransferRequest{
			Sources:   intent.Ephemeral.Paths,
			TargetDir: joinAbsolute(root, dest.RelativeDir),
		})

	case models.ParentEphemeral:
		sources, err := d.intentSources(ctx, intent)
		if err != nil {
			d.notifyError(action, err)
			return false, err
		}
		kind := RouteEphemeralToEphemeral
		if intent.Indexed != nil {
			kind = RouteLocationToEphemeral
		}
		return true, d.runEphemeral(ctx, action, kind, protocol.EphemeralTransferRequest{
			Sources:   sources,
			TargetDir: dest.DirectoryPath,
		})

	default:
		err := fmt.Errorf("cannot paste into %s view", dest)
		d.notifier.Error(notify.Toast{
			Title: "Cannot paste here",
			Body:  err.Error(),
		})
		return false, err
	}
}

// AssignTag tags (or untags) the taggable part of a selection.
func (d *Dispatcher) AssignTag(ctx context.Context, tagID int32, items []models.ExplorerItem, unassign bool) error {
	return d.assignTag(ctx, tagID, items, unassign)
}

// intentSources returns the absolute source paths of an intent, resolving
// indexed ids through the backend when needed.
func (d *Dispatcher) intentSources(ctx context.Context, intent Intent) ([]string, error) {
	if intent.Ephemeral != nil {
		return intent.Ephemeral.Paths, nil
	}
	addrs := make([]Address, 0, len(intent.Indexed.FilePathIDs))
	for _, id := range intent.Indexed.FilePathIDs {
		fp := models.FilePath{ID: id, LocationID: intent.Indexed.LocationID}
		addrs = append(addrs, Address{FilePath: &fp})
	}
	return d.resolver.AbsolutePaths(ctx, addrs)
}

// copyInPlace duplicates a drag's items into their own directory with the
// distinguishing suffix.
func (d *Dispatcher) copyInPlace(ctx context.Context, drag DragPayload, action Action) error {
	if drag.SourceLocationID != 0 {
		ids, skipped := PartitionIndexed(drag.Items, drag.SourceLocationID)
		d.reportSkipped(skipped)
		if len(ids) == 0 {
			return nil
		}
		suffix := CopySuffix
		return d.runIndexed(ctx, action, RouteLocationToLocation, protocol.IndexedTransferRequest{
			SourceLocationID:                    drag.SourceLocationID,
			SourcesFilePathIDs:                  ids,
			TargetLocationID:                    drag.SourceLocationID,
			TargetLocationRelativeDirectoryPath: models.NormalizeDir(drag.SourcePath),
			TargetFileNameSuffix:                &suffix,
		})
	}

	sources, skipped := PartitionEphemeral(drag.Items)
	d.reportSkipped(skipped)
	if len(sources) == 0 {
		return nil
	}
	// Name collisions in ephemeral space are resolved by the backend.
	return d.runEphemeral(ctx, action, RouteEphemeralToEphemeral, protocol.EphemeralTransferRequest{
		Sources:   sources,
		TargetDir: models.NormalizeDir(drag.SourcePath),
	})
}

// dispatchPerLocation issues one indexed mutation per distinct source
// location, concurrently. Outcomes are independent: one location failing
// does not undo or stop the others.
func (d *Dispatcher) dispatchPerLocation(ctx context.Context, items []models.ExplorerItem, route Route, action Action) error {
	order, byLocation, skipped := GroupByLocation(items)
	d.reportSkipped(skipped)
	if len(order) == 0 {
		return nil
	}
	total := 0
	for _, ids := range byLocation {
		total += len(ids)
	}

	errs := make([]error, len(order))
	done := make(chan int, len(order))

	for i, locationID := range order {
		go func(i int, locationID int32) {
			errs[i] = d.runOne(ctx, action, route.Kind, protocol.IndexedTransferRequest{
				SourceLocationID:                    locationID,
				SourcesFilePathIDs:                  byLocation[locationID],
				TargetLocationID:                    route.TargetLocationID,
				TargetLocationRelativeDirectoryPath: route.TargetRelativeDir,
			})
			done <- i
		}(i, locationID)
	}
	for range order {
		<-done
	}

	var failed []error
	for i, err := range errs {
		if err != nil {
			d.notifyError(action, err)
			failed = append(failed, fmt.Errorf("location %d: %w", order[i], err))
		}
	}
	if len(failed) == 0 {
		d.notifySuccess(action, total)
		return nil
	}
	return errors.Join(failed...)
}

// runIndexed executes one indexed mutation with toasts and metrics.
func (d *Dispatcher) runIndexed(ctx context.Context, action Action, route RouteKind, req protocol.IndexedTransferRequest) error {
	err := d.runOne(ctx, action, route, req)
	if err != nil {
		d.notifyError(action, err)
		return err
	}
	d.notifySuccess(action, len(req.SourcesFilePathIDs))
	return nil
}

// runOne issues a single indexed mutation without user feedback.
func (d *Dispatcher) runOne(ctx context.Context, action Action, route RouteKind, req protocol.IndexedTransferRequest) error {
	op := uuid.NewString()
	mutation := "files.copyFiles"
	if action.isCut() {
		mutation = "files.cutFiles"
	}

	logging.Debug("dispatching indexed transfer",
		zap.String("op", op),
		zap.String("route", route.String()),
		zap.String("mutation", mutation),
		zap.Int32("source_location", req.SourceLocationID),
		zap.Int32("target_location", req.TargetLocationID))

	metrics.TransferStarted()
	start := time.Now()
	var err error
	if action.isCut() {
		err = d.backend.CutFiles(ctx, req)
	} else {
		err = d.backend.CopyFiles(ctx, req)
	}
	metrics.TransferFinished()
	metrics.ObserveTransferDuration(mutation, time.Since(start))

	if err != nil {
		metrics.RecordTransfer(route.String(), mutation, "error")
		logging.Error("indexed transfer failed", zap.String("op", op), zap.Error(err))
		return err
	}

	metrics.RecordTransfer(route.String(), mutation, "ok")
	if action.isCut() {
		// The files moved; their cached absolute paths are stale.
		for _, id := range req.SourcesFilePathIDs {
			d.resolver.InvalidatePath(id)
		}
	}
	return nil
}

// runEphemeral executes one ephemeral mutation with toasts and metrics.
func (d *Dispatcher) runEphemeral(ctx context.Context, action Action, route RouteKind, req protocol.EphemeralTransferRequest) error {
	op := uuid.NewString()
	mutation := "ephemeralFiles.copyFiles"
	if action.isCut() {
		mutation = "ephemeralFiles.cutFiles"
	}

	logging.Debug("dispatching ephemeral transfer",
		zap.String("op", op),
		zap.String("route", route.String()),
		zap.String("mutation", mutation),
		zap.Int("sources", len(req.Sources)),
		zap.String("target_dir", req.TargetDir))

	metrics.TransferStarted()
	start := time.Now()
	var err error
	if action.isCut() {
		err = d.backend.EphemeralCutFiles(ctx, req)
	} else {
		err = d.backend.EphemeralCopyFiles(ctx, req)
	}
	metrics.TransferFinished()
	metrics.ObserveTransferDuration(mutation, time.Since(start))

	if err != nil {
		metrics.RecordTransfer(route.String(), mutation, "error")
		logging.Error("ephemeral transfer failed", zap.String("op", op), zap.Error(err))
		d.notifyError(action, err)
		return err
	}

	metrics.RecordTransfer(route.String(), mutation, "ok")
	d.notifySuccess(action, len(req.Sources))
	return nil
}

func (d *Dispatcher) assignTag(ctx context.Context, tagID int32, items []models.ExplorerItem, unassign bool) error {
	targets, skipped := PartitionTaggable(items)
	d.reportSkipped(skipped)
	if len(targets) == 0 {
		return nil
	}

	metrics.TransferStarted()
	start := time.Now()
	err := d.backend.AssignTag(ctx, protocol.TagAssignRequest{
		TagID:    tagID,
		Targets:  targets,
		Unassign: unassign,
	})
	metrics.TransferFinished()
	metrics.ObserveTransferDuration("tags.assign", time.Since(start))

	if err != nil {
		metrics.RecordTransfer(RouteToTag.String(), "tags.assign", "error")
		verb := "tag"
		if unassign {
			verb = "untag"
		}
		d.notifier.Error(notify.Toast{
			Title: fmt.Sprintf("Failed to %s items", verb),
			Body:  err.Error(),
		})
		return err
	}

	metrics.RecordTransfer(RouteToTag.String(), "tags.assign", "ok")
	d.notifier.Success(notify.Toast{
		Title: fmt.Sprintf("Tagged %d items", len(targets)),
	})
	return nil
}

// reportSkipped logs items a partition excluded. The skip counters carry
// the aggregate; per-item detail only matters when debugging.
func (d *Dispatcher) reportSkipped(skipped []Skipped) {
	for _, s := range skipped {
		logging.Debug("item skipped",
			zap.String("item", s.Item.Name()),
			zap.String("reason", string(s.Reason)))
	}
}

func (d *Dispatcher) conflictNotice() {
	metrics.RecordConflict()
	d.notifier.Error(notify.Toast{
		Title: "File already exists in this location",
		Body:  "The files are already where you are moving them.",
	})
}

func (d *Dispatcher) notifyError(action Action, err error) {
	d.notifier.Error(notify.Toast{
		Title: fmt.Sprintf("Failed to %s files", action),
		Body:  err.Error(),
	})
}

func (d *Dispatcher) notifySuccess(action Action, count int) {
	d.notifier.Success(notify.Toast{
		Title: fmt.Sprintf("%s %d files", action.done(), count),
	})
}

// filesystemOnly drops addresses with no filesystem form.
func filesystemOnly(addrs []Address) []Address {
	out := addrs[:0:0]
	for _, a := range addrs {
		if a.HasFilesystem() {
			out = append(out, a)
		}
	}
	return out
}
