package game

import "sort"

// BuildLeaderboard derives a ranked snapshot from the room's scores.
// Read-only and safe to call in any state. Ordering is deterministic:
// score descending, then earlier join, then lower player ID. Ties share
// a rank (standard competition ranking: 1,2,2,4).
func BuildLeaderboard(r *Room) []LeaderboardEntry {
	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		if !players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].JoinedAt.Before(players[j].JoinedAt)
		}
		return players[i].ID < players[j].ID
	})

	entries := make([]LeaderboardEntry, 0, len(players))
	for i, p := range players {
		rank := i + 1
		if i > 0 && p.Score == players[i-1].Score {
			rank = entries[i-1].Rank
		}
		entries = append(entries, LeaderboardEntry{
			PlayerID: p.ID,
			Nickname: p.Nickname,
			Score:    p.Score,
			Rank:     rank,
		})
	}
	return entries
}

func sortPlayersByJoin(players []Player) {
	sort.Slice(players, func(i, j int) bool {
		if !players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].JoinedAt.Before(players[j].JoinedAt)
		}
		return players[i].ID < players[j].ID
	})
}
