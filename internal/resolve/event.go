package resolve

import "github.com/sells-group/ringstreak/internal/model"

// BuildCallEvent packages a lookup for publishing. The best match becomes Top
// and the rest become Others; a nil response yields an event with no matches.
func BuildCallEvent(direction model.Direction, from, to, callID string, resp *model.LookupResponse) model.CallEvent {
	ev := model.CallEvent{
		Direction: direction,
		From:      from,
		To:        to,
		CallID:    callID,
		Others:    []model.MatchResult{},
	}
	if resp == nil || len(resp.Matches) == 0 {
		return ev
	}
	top := resp.Matches[0]
	ev.Top = &top
	ev.Others = append(ev.Others, resp.Matches[1:]...)
	return ev
}
