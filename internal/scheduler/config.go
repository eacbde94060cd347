package scheduler

import (
	"time"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

// DocType is the $type value a persisted scheduler configuration document
// carries: a reserved document with type = scheduler.
const DocType = "scheduler"

// Item names on a scheduler configuration document.
const (
	ItemName           = "scheduler.name"
	ItemDefinition      = "scheduler.definition" // the calendar expression text
	ItemEnabled         = "scheduler.enabled"
	ItemClass           = "scheduler.class" // registered Implementation name
	ItemLog             = "scheduler.log"   // append-only log lines
	ItemError           = "scheduler.error"
	ItemNextTimeout     = "scheduler.nexttimeout"
	ItemTimeRemaining   = "scheduler.timeremaining"
)

// ID returns the configuration document's own $uniqueid, the value every
// scheduler operation keys timers and store lookups by.
func ID(config *itemcollection.ItemCollection) string {
	return config.GetItemValueString(itemcollection.ItemUniqueID)
}

// Enabled reports the configuration's enabled flag.
func Enabled(config *itemcollection.ItemCollection) bool {
	return config.GetItemValueBool(ItemEnabled)
}

// appendLog appends a timestamped line to the log item, matching
// onTimeout's "Finished: <timestamp>" / "Error: <msg>" append contract.
func appendLog(config *itemcollection.ItemCollection, line string) {
	existing := config.GetItemValueStringList(ItemLog)
	_ = config.SetItemValue(ItemLog, append(existing, line))
}

func clearTimerDetails(config *itemcollection.ItemCollection) {
	_ = config.SetItemValue(ItemNextTimeout, nil)
	_ = config.SetItemValue(ItemTimeRemaining, nil)
}

func setTimerDetails(config *itemcollection.ItemCollection, next time.Time) {
	_ = config.SetItemValue(ItemNextTimeout, next)
	_ = config.SetItemValue(ItemTimeRemaining, int64(time.Until(next).Seconds()))
}
