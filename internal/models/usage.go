package models

// UsageStorageKey ключ локального хранилища с дневными счётчиками.
const UsageStorageKey = "nullupload_usage"

// WaitlistStorageKey ключ локального хранилища со списком ожидания.
const WaitlistStorageKey = "nullupload_waitlist"

// DateLayout формат календарного дня в UsageRecord.
const DateLayout = "2006-01-02"

// UsageRecord счётчик инструмента за один календарный день.
// Count действителен только для Date.
type UsageRecord struct {
	Count int    `json:"count"`
	Date  string `json:"date"`
}

// UsageData счётчики всех инструментов, ключом служит идентификатор инструмента.
type UsageData map[string]UsageRecord

// UsedOn возвращает счётчик инструмента за день today; запись за другой день считается нулевой.
func (d UsageData) UsedOn(toolID, today string) int {
	rec, ok := d[toolID]
	if !ok || rec.Date != today {
		return 0
	}
	return rec.Count
}

// Clone возвращает независимую копию.
func (d UsageData) Clone() UsageData {
	out := make(UsageData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
