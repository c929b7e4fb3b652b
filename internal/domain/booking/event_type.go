package booking

// Host is one member of an event type's pool. A fixed host is always the
// organizer of record; dynamic hosts rotate via round-robin.
type Host struct {
	UserID   int64
	Name     string
	Email    string
	TimeZone string
	Locale   string
	IsFixed  bool
	Priority int
}

type EventType struct {
	ID                   int64
	Slug                 string
	Title                string
	Description          string
	SchedulingType       SchedulingType
	RequiresConfirmation bool
	Length               int
	TeamID               *int64
	TeamName             string
	Hosts                []Host
}

func (e *EventType) HostByUserID(userID int64) *Host {
	for i := range e.Hosts {
		if e.Hosts[i].UserID == userID {
			return &e.Hosts[i]
		}
	}
	return nil
}

func (e *EventType) FixedHost() *Host {
	for i := range e.Hosts {
		if e.Hosts[i].IsFixed {
			return &e.Hosts[i]
		}
	}
	return nil
}

func (e *EventType) DynamicHosts() []Host {
	var hosts []Host
	for _, h := range e.Hosts {
		if !h.IsFixed {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// CurrentDynamicHost resolves which pool member the booking currently
// represents: the organizer if they are a dynamic host, or the dynamic host
// recorded as an attendee on fixed-organizer bookings.
func (e *EventType) CurrentDynamicHost(b *Booking) *Host {
	for i := range e.Hosts {
		h := &e.Hosts[i]
		if h.IsFixed {
			continue
		}
		if h.UserID == b.UserID {
			return h
		}
		if b.AttendeeByEmail(h.Email) != nil {
			return h
		}
	}
	return nil
}
