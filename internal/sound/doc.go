// Package sound plays the kiosk's audio cue through aplay. Only one cue plays
// at a time: a new request terminates the running player and gives it up to
// 100ms to release the ALSA device before starting again.
package sound
