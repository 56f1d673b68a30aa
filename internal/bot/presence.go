package bot

import (
	"fmt"
	"time"
)

const presenceUpdateInterval = 60 * time.Second

func (b *Bot) startPresenceUpdater() {
	if b.presenceStop != nil {
		return
	}
	b.presenceStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(presenceUpdateInterval)
		defer ticker.Stop()

		b.updatePresence()
		for {
			select {
			case <-b.presenceStop:
				return
			case <-ticker.C:
				b.updatePresence()
			}
		}
	}()
}

func (b *Bot) stopPresenceUpdater() {
	if b.presenceStop == nil {
		return
	}
	close(b.presenceStop)
	b.presenceStop = nil
}

func (b *Bot) updatePresence() {
	guildCount := 0
	if b.session.State != nil {
		guildCount = len(b.session.State.Guilds)
	}

	status := fmt.Sprintf("music on %d servers | /play", guildCount)
	if err := b.session.UpdateGameStatus(0, status); err != nil {
		b.log.Warnf("failed to update presence: %v", err)
	}
}
