// ABOUTME: Tracker module playback package
// ABOUTME: Player facade, playback state machine and real-time render loop
// Package modplay plays ScreamTracker, Protracker and Fasttracker modules.
//
// A Player moves through five states:
//
//	Empty -> Ready (Load) -> Playing (Play) <-> Paused (Pause/Play)
//	Playing/Paused -> Stopped (Stop, or end of song without loop)
//
// The audio device calls the render loop once per buffer. Each buffer is
// mixed by the decoder, metered, emitted as a Tick while Playing, run
// through stereo separation and soft clipping, then checked for end of song.
// Control calls never touch decoder state the render loop is using; they
// queue commands that the render loop applies at the next buffer boundary.
// Queuing never waits for the device, so a stalled device cannot hang them.
//
// Example:
//
//	player, err := modplay.NewPlayer(modplay.Config{
//	    OnEvent: func(ev modplay.Event) {
//	        if ev.Kind == modplay.EventState {
//	            log.Printf("state: %s", ev.State)
//	        }
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer player.Close()
//
//	if err := player.LoadFile("space_debris.mod"); err != nil {
//	    log.Fatal(err)
//	}
//	player.Play()
package modplay
