package calendar

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"schedcore/internal/infra"
	"schedcore/internal/pkg/config"
	"schedcore/internal/usecase/shared"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const eventStatusCancelled = "cancelled"

// GoogleClient talks to the Google Calendar API on behalf of stored user
// credentials. A fresh service is built per call because each call may act
// for a different user's grant.
type GoogleClient struct {
	oauthConfig *oauth2.Config
	logger      *slog.Logger
}

func NewGoogleClient(cfg config.GoogleConfig, logger *slog.Logger) *GoogleClient {
	return &GoogleClient{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     googleoauth.Endpoint,
		},
		logger: logger,
	}
}

func (c *GoogleClient) service(ctx context.Context, cred *shared.Credential) (*gcal.Service, error) {
	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry,
	}
	httpClient := oauth2.NewClient(ctx, c.oauthConfig.TokenSource(ctx, token))
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, classifyProviderErr("failed to create calendar service", err)
	}
	return svc, nil
}

func (c *GoogleClient) CreateEvent(ctx context.Context, cred *shared.Credential, calendarID string, input shared.CalendarEventInput) (*shared.CalendarReference, error) {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert(calendarID, toGoogleEvent(input)).Context(ctx).Do()
	if err != nil {
		return nil, classifyProviderErr("failed to create calendar event", err)
	}

	c.logger.Info("created calendar event",
		"calendar_id", calendarID, "event_id", created.Id, "uid", input.UID)
	return &shared.CalendarReference{
		ExternalEventID: created.Id,
		ICalUID:         created.ICalUID,
		CalendarID:      calendarID,
	}, nil
}

// RescheduleEvent rewrites an existing provider event in place, keeping its
// id and iCalUID stable so attendees' copies update instead of duplicating.
func (c *GoogleClient) RescheduleEvent(ctx context.Context, cred *shared.Credential, calendarID, externalEventID string, input shared.CalendarEventInput) error {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return err
	}

	_, err = svc.Events.Update(calendarID, externalEventID, toGoogleEvent(input)).Context(ctx).Do()
	if err != nil {
		return classifyProviderErr("failed to reschedule calendar event", err)
	}

	c.logger.Info("rescheduled calendar event",
		"calendar_id", calendarID, "event_id", externalEventID, "uid", input.UID)
	return nil
}

// ListUpdatedEvents fetches events changed since updatedMin, cancelled ones
// included, and splits them by status.
func (c *GoogleClient) ListUpdatedEvents(ctx context.Context, cred *shared.Credential, calendarID string, updatedMin time.Time) (*shared.ExternalEventSet, error) {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return nil, err
	}

	set := &shared.ExternalEventSet{}
	pageToken := ""
	for {
		call := svc.Events.List(calendarID).
			ShowDeleted(true).
			SingleEvents(false).
			UpdatedMin(updatedMin.UTC().Format(time.RFC3339)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, classifyProviderErr("failed to list calendar events", err)
		}

		for _, item := range page.Items {
			ev, ok := toExternalEvent(item)
			if !ok {
				continue
			}
			if item.Status == eventStatusCancelled {
				set.Cancelled = append(set.Cancelled, ev)
			} else {
				set.Confirmed = append(set.Confirmed, ev)
			}
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("listed updated calendar events",
		"calendar_id", calendarID,
		"confirmed", len(set.Confirmed), "cancelled", len(set.Cancelled))
	return set, nil
}

func toGoogleEvent(input shared.CalendarEventInput) *gcal.Event {
	ev := &gcal.Event{
		Summary:     input.Title,
		Description: input.Description,
		Location:    input.Location,
		ICalUID:     input.UID,
		Start: &gcal.EventDateTime{
			DateTime: input.StartTime.UTC().Format(time.RFC3339),
			TimeZone: input.Organizer.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: input.EndTime.UTC().Format(time.RFC3339),
			TimeZone: input.Organizer.TimeZone,
		},
	}
	ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{
		Email:       input.Organizer.Email,
		DisplayName: input.Organizer.Name,
		Organizer:   true,
	})
	for _, a := range input.Attendees {
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{
			Email:       a.Email,
			DisplayName: a.Name,
		})
	}
	if input.VideoCallURL != "" {
		ev.Location = input.VideoCallURL
	}
	return ev
}

// toExternalEvent normalizes one API event. All-day events carry no DateTime
// and are skipped; cancelled events keep whatever fields the API returns.
func toExternalEvent(item *gcal.Event) (shared.ExternalEvent, bool) {
	ev := shared.ExternalEvent{
		ID:          item.Id,
		ICalUID:     item.ICalUID,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		HangoutLink: item.HangoutLink,
		Recurrence:  item.Recurrence,
	}
	if item.Status != eventStatusCancelled {
		if item.Start == nil || item.Start.DateTime == "" || item.End == nil {
			return ev, false
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return ev, false
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return ev, false
		}
		ev.StartTime = start
		ev.EndTime = end
		ev.TimeZone = item.Start.TimeZone
	}
	for _, a := range item.Attendees {
		ev.Attendees = append(ev.Attendees, shared.ExternalAttendee{
			Email:       a.Email,
			DisplayName: a.DisplayName,
			Organizer:   a.Organizer,
		})
	}
	return ev, true
}

func classifyProviderErr(msg string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return infra.WrapRepoErr(msg, err, infra.KindProviderRateLimited)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return infra.WrapRepoErr(msg, err, infra.KindProviderAuthFailed)
		case apiErr.Code >= http.StatusInternalServerError:
			return infra.WrapRepoErr(msg, err, infra.KindProviderUnavailable)
		}
	}
	return infra.WrapRepoErr(msg, err, infra.KindProviderUnavailable)
}
