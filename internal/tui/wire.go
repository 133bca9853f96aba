package tui

import (
	"sort"

	"github.com/Iron-Ham/shipyard/internal/event"
	"github.com/Iron-Ham/shipyard/internal/scheduler"
)

// Attach subscribes send to the bus, translating run events into bubbletea
// messages. send is usually (*tea.Program).Send. The returned function
// unsubscribes.
func Attach(bus *event.Bus, send func(msg any)) func() {
	id := bus.SubscribeAll(func(e event.Event) {
		switch e := e.(type) {
		case event.PackageStageEvent:
			send(StageMsg{Package: e.Package, Stage: e.Stage})
		case event.SchedulerStateEvent:
			send(StateMsg{State: e.State})
		case event.ViewModeEvent:
			send(ViewModeMsg{Mode: e.Mode, Filter: e.Filter})
		case event.RunFinishedEvent:
			send(FinishedMsg{Result: e.Result})
		}
	})
	return func() { bus.Unsubscribe(id) }
}

// PackagesFromScheduler builds the initial display rows for the packages
// known to a scheduler, ordered by level then name.
func PackagesFromScheduler(s *scheduler.Scheduler, names []string) []PackageInfo {
	infos := make([]PackageInfo, 0, len(names))
	for _, name := range names {
		if node := s.Node(name); node != nil {
			infos = append(infos, PackageInfo{Name: name, Level: node.Level})
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Level != infos[j].Level {
			return infos[i].Level < infos[j].Level
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}
