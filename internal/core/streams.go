package core

// Stream delivers a recomputed value whenever a committed transaction touches
// the entities the stream depends on. Delivery is latest-wins: a slow
// consumer observes the newest value, never a backlog of stale ones. The
// channel closes after Cancel.
type Stream[T any] struct {
	ch     chan T
	cancel func()
}

// Updates returns the value channel.
func (s *Stream[T]) Updates() <-chan T {
	return s.ch
}

// Cancel detaches the stream from the store and closes the channel.
func (s *Stream[T]) Cancel() {
	s.cancel()
}

// openStream watches the store and recomputes through compute on every commit
// touching one of the given entities. The initial value is emitted before any
// commit. A compute reporting ok=false (the watched team vanished, say) drops
// the emission but keeps the stream attached.
func openStream[T any](s *Service, entities []EntityType, compute func() (T, bool)) *Stream[T] {
	watcher := s.store.Watch(entities...)
	stream := &Stream[T]{
		ch:     make(chan T, 1),
		cancel: watcher.Cancel,
	}
	go func() {
		defer close(stream.ch)
		emit := func() {
			value, ok := compute()
			if !ok {
				return
			}
			select {
			case <-stream.ch:
			default:
			}
			stream.ch <- value
		}
		emit()
		for range watcher.Events() {
			emit()
		}
	}()
	return stream
}

// TeamsStream emits the full team list, newest first.
func (s *Service) TeamsStream() *Stream[[]Team] {
	return openStream(s, []EntityType{EntityTeam}, func() ([]Team, bool) {
		return s.store.ListTeams(), true
	})
}

// TeamNameStream emits a single team's current name. The stream goes quiet if
// the team is deleted.
func (s *Service) TeamNameStream(teamID int64) *Stream[string] {
	return openStream(s, []EntityType{EntityTeam}, func() (string, bool) {
		team, ok := s.store.GetTeam(teamID)
		if !ok {
			return "", false
		}
		return team.Name, true
	})
}

// MemberIDsStream emits the ordered creature ids of one team's roster.
func (s *Service) MemberIDsStream(teamID int64) *Stream[[]int64] {
	return openStream(s, []EntityType{EntityTeam, EntityTeamMember}, func() ([]int64, bool) {
		members := s.store.TeamMembers(teamID)
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.CreatureID)
		}
		return ids, true
	})
}

// TeamCreaturesStream emits the ordered detail records of one team's roster.
// Members with no stored detail record are omitted, matching Snapshot.
func (s *Service) TeamCreaturesStream(teamID int64) *Stream[[]CreatureRecord] {
	entities := []EntityType{EntityTeam, EntityTeamMember, EntityCreature}
	return openStream(s, entities, func() ([]CreatureRecord, bool) {
		members := s.store.TeamMembers(teamID)
		records := make([]CreatureRecord, 0, len(members))
		for _, m := range members {
			if record, ok := s.store.GetCreature(m.CreatureID); ok {
				records = append(records, record)
			}
		}
		return records, true
	})
}

// CountMembersStream emits one team's roster size.
func (s *Service) CountMembersStream(teamID int64) *Stream[int] {
	return openStream(s, []EntityType{EntityTeam, EntityTeamMember}, func() (int, bool) {
		return s.store.CountTeamMembers(teamID), true
	})
}

// MemberExistsStream emits whether a creature sits on the given team.
func (s *Service) MemberExistsStream(teamID, creatureID int64) *Stream[bool] {
	return openStream(s, []EntityType{EntityTeam, EntityTeamMember}, func() (bool, bool) {
		for _, m := range s.store.TeamMembers(teamID) {
			if m.CreatureID == creatureID {
				return true, true
			}
		}
		return false, true
	})
}

// CreatureStream emits one creature's detail record after every catalog
// change. The stream goes quiet while the record is absent.
func (s *Service) CreatureStream(creatureID int64) *Stream[CreatureRecord] {
	return openStream(s, []EntityType{EntityCreature}, func() (CreatureRecord, bool) {
		return s.store.GetCreature(creatureID)
	})
}

// SearchStream emits the creatures whose name contains the query, re-running
// the search after every catalog change.
func (s *Service) SearchStream(query string) *Stream[[]CreatureRecord] {
	return openStream(s, []EntityType{EntityCreature}, func() ([]CreatureRecord, bool) {
		return s.store.SearchCreatures(query), true
	})
}

// FavoritesStream emits the favorite creatures, name-sorted.
func (s *Service) FavoritesStream() *Stream[[]CreatureRecord] {
	return openStream(s, []EntityType{EntityCreature}, func() ([]CreatureRecord, bool) {
		return s.store.FavoriteCreatures(), true
	})
}

// MinimumStatsStream emits the creatures meeting every inclusive stat floor,
// re-filtering after every catalog change.
func (s *Service) MinimumStatsStream(hp, attack, defense, speed int) *Stream[[]CreatureRecord] {
	return openStream(s, []EntityType{EntityCreature}, func() ([]CreatureRecord, bool) {
		return s.store.CreaturesWithMinimumStats(hp, attack, defense, speed), true
	})
}

// PageEntriesStream emits one page's listing rows, name-sorted, re-reading
// after every listing import.
func (s *Service) PageEntriesStream(page int) *Stream[[]CatalogPageEntry] {
	return openStream(s, []EntityType{EntityCatalogPage}, func() ([]CatalogPageEntry, bool) {
		return s.store.PageEntries(page), true
	})
}
