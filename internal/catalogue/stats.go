package catalogue

// Stats summarises a flattened bundle list for the console header.
type Stats struct {
	Total     int
	Data      int
	Voice     int
	Cheap     int
	Unlimited int
}

// ComputeStats counts segment membership over the records.
func ComputeStats(records []Record) Stats {
	stats := Stats{Total: len(records)}
	for _, record := range records {
		if record.Type == "Data" {
			stats.Data++
		}
		if record.Type == "Voice" {
			stats.Voice++
		}
		if record.Cost.Value <= CheapThreshold {
			stats.Cheap++
		}
		if record.IsUnlimited() {
			stats.Unlimited++
		}
	}
	return stats
}
