package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
)

// ListSessions prints the user IDs with a stored session.
func ListSessions(ctx context.Context, store ports.StateStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	sort.Strings(ids)
	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectSession pretty prints the session of userID.
func InspectSession(ctx context.Context, store ports.StateStore, userID string, w io.Writer) error {
	s, err := store.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", userID, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes the sessions of the given users. Missing sessions
// are reported but do not stop the others from being removed.
func RemoveSessions(ctx context.Context, store ports.StateStore, userIDs []string, w io.Writer) error {
	var errs []error
	for _, id := range userIDs {
		if err := store.Delete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				fmt.Fprintf(w, "No session for '%s'\n", id)
				continue
			}
			errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
