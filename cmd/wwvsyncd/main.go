// wwvsyncd is a real-time NIST WWV/WWVH time-signal receiver and
// synchronizer: it locks onto the station's minute markers, decodes the
// BCD time-code subcarrier, and reports receiver frequency offset against
// the station's reference tones.
package main

import "github.com/alexpennington/wwvsync/cmd/wwvsyncd/commands"

func main() {
	commands.Execute()
}
