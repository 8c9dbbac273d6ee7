package normalize

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testNormalizer() *Normalizer {
	seq := 0
	return &Normalizer{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("gen_%d", seq)
		},
	}
}

func decode[R any](t *testing.T, raw string) R {
	t.Helper()
	rec, err := Decode[R]([]byte(raw))
	require.NoError(t, err)
	return rec
}

// again runs an already normalized entity through storage and back.
func again[T, R any](t *testing.T, v T, fn func(R) T) T {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	rec, err := Decode[R](data)
	require.NoError(t, err)
	return fn(rec)
}

func TestClient_LegacyName(t *testing.T) {
	n := testNormalizer()

	jane := n.Client(decode[ClientRecord](t, `{"id":"c1","name":"Jane Doe"}`))
	assert.Equal(t, "Jane", jane.FirstName)
	assert.Equal(t, "Doe", jane.LastName)

	madonna := n.Client(decode[ClientRecord](t, `{"id":"c2","name":"Madonna"}`))
	assert.Equal(t, "Madonna", madonna.FirstName)
	assert.Empty(t, madonna.LastName)

	data, err := json.Marshal(madonna)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "lastName")

	multi := n.Client(decode[ClientRecord](t, `{"name":"  Mary   Ann  Smith "}`))
	assert.Equal(t, "Mary", multi.FirstName)
	assert.Equal(t, "Ann  Smith", multi.LastName)
}

func TestClient_CanonicalFieldsWinOverLegacyName(t *testing.T) {
	n := testNormalizer()
	c := n.Client(decode[ClientRecord](t, `{"firstName":"Avery","lastName":"","name":"Someone Else"}`))
	assert.Equal(t, "Avery", c.FirstName)
	assert.Equal(t, "Else", c.LastName)
}

func TestClient_LooseFields(t *testing.T) {
	n := testNormalizer()
	c := n.Client(decode[ClientRecord](t, `{
		"firstName":" Avery ",
		"phone":5551234,
		"email":"   ",
		"tags":"color, balayage ,,",
		"createdAt":1760000000000,
		"updatedAt":"garbage"
	}`))

	assert.Equal(t, "gen_1", c.ID)
	assert.Equal(t, "Avery", c.FirstName)
	assert.Equal(t, "5551234", c.Phone)
	assert.Empty(t, c.Email)
	assert.Equal(t, []string{"color", "balayage"}, c.Tags)
	assert.Equal(t, time.UnixMilli(1760000000000).UTC(), c.CreatedAt)
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
}

func TestTimestamps(t *testing.T) {
	n := testNormalizer()

	missing := n.Client(decode[ClientRecord](t, `{"firstName":"A"}`))
	assert.Equal(t, fixedNow, missing.CreatedAt)
	assert.Equal(t, fixedNow, missing.UpdatedAt)

	onlyUpdated := n.Client(decode[ClientRecord](t, `{"firstName":"A","updatedAt":"2025-01-02T03:04:05Z"}`))
	assert.Equal(t, onlyUpdated.UpdatedAt, onlyUpdated.CreatedAt)

	inverted := n.Client(decode[ClientRecord](t, `{"firstName":"A","createdAt":"2025-02-01T00:00:00Z","updatedAt":"2025-01-01T00:00:00Z"}`))
	assert.False(t, inverted.UpdatedAt.Before(inverted.CreatedAt))

	offset := n.Client(decode[ClientRecord](t, `{"firstName":"A","createdAt":"2025-02-01T10:00:00-03:00"}`))
	assert.Equal(t, time.Date(2025, 2, 1, 13, 0, 0, 0, time.UTC), offset.CreatedAt)
}

func TestAppointment_LegacyAliases(t *testing.T) {
	n := testNormalizer()

	a := n.Appointment(decode[AppointmentRecord](t, `{
		"id":"a1","clientId":"c1","service":"Gloss",
		"startAt":"2026-10-20T14:00:00Z","durationMinutes":"90","status":"Canceled"
	}`))
	assert.Equal(t, "Gloss", a.ServiceName)
	assert.Equal(t, 90, a.DurationMin)
	assert.Equal(t, "cancelled", a.Status)

	b := n.Appointment(decode[AppointmentRecord](t, `{"serviceName":"Cut","service":"Old","durationMins":45,"status":"no-show"}`))
	assert.Equal(t, "Cut", b.ServiceName)
	assert.Equal(t, 45, b.DurationMin)
	assert.Equal(t, "scheduled", b.Status)
	assert.Equal(t, fixedNow, b.StartAt)

	c := n.Appointment(decode[AppointmentRecord](t, `{"durationMin":0,"durationMinutes":-10}`))
	assert.Equal(t, 60, c.DurationMin)

	huge := n.Appointment(decode[AppointmentRecord](t, `{"durationMin":1e20}`))
	assert.Equal(t, 60, huge.DurationMin)

	next := n.Appointment(decode[AppointmentRecord](t, `{"durationMin":1e20,"durationMinutes":30}`))
	assert.Equal(t, 30, next.DurationMin)
}

func TestTimestamps_OutOfRange(t *testing.T) {
	n := testNormalizer()

	for _, raw := range []string{
		`{"firstName":"Legacy","createdAt":9e15}`,
		`{"firstName":"Legacy","createdAt":1e300}`,
		`{"firstName":"Legacy","createdAt":"9999-12-31T23:00:00-05:00"}`,
	} {
		c := n.Client(decode[ClientRecord](t, raw))
		assert.Equal(t, fixedNow, c.CreatedAt, raw)

		_, err := json.Marshal(c)
		assert.NoError(t, err, raw)
	}

	edge := n.Client(decode[ClientRecord](t, `{"firstName":"A","createdAt":253402300799000}`))
	assert.Equal(t, 9999, edge.CreatedAt.Year())
}

func TestFormula_Defaults(t *testing.T) {
	n := testNormalizer()

	f := n.Formula(decode[FormulaRecord](t, `{
		"serviceType":"BALAYAGE",
		"steps":[
			{"product":"7N","grams":30,"processingMin":-5},
			{"stepName":"  ","product":"Toner","grams":"12.5"}
		]
	}`))
	assert.Equal(t, UntitledFormula, f.Title)
	assert.Equal(t, models.ServiceOther, f.ServiceType)
	require.Len(t, f.Steps, 2)
	assert.Equal(t, "Step 1", f.Steps[0].StepName)
	assert.Equal(t, "Step 2", f.Steps[1].StepName)
	assert.Nil(t, f.Steps[0].ProcessingMin)
	require.NotNil(t, f.Steps[1].Grams)
	assert.InDelta(t, 12.5, *f.Steps[1].Grams, 0.0001)
}

func TestFormula_SynthesizesLegacyStep(t *testing.T) {
	n := testNormalizer()

	f := n.Formula(decode[FormulaRecord](t, `{
		"service":"Root touch-up","serviceType":"color",
		"developer":"20 vol","ratio":"1:1","grams":"40","processingTime":"35 min"
	}`))
	assert.Equal(t, "Root touch-up", f.Title)
	assert.Equal(t, models.ServiceColor, f.ServiceType)
	require.Len(t, f.Steps, 1)

	s := f.Steps[0]
	assert.Equal(t, "Formula", s.StepName)
	assert.Equal(t, "Root touch-up", s.Product)
	assert.Equal(t, "20 vol", s.Developer)
	assert.Equal(t, "1:1", s.Ratio)
	require.NotNil(t, s.Grams)
	assert.Equal(t, 40.0, *s.Grams)
	require.NotNil(t, s.ProcessingMin)
	assert.Equal(t, 35.0, *s.ProcessingMin)

	empty := n.Formula(decode[FormulaRecord](t, `{"title":"Gloss","steps":"not a list"}`))
	require.Len(t, empty.Steps, 1)
	assert.Equal(t, "Gloss", empty.Steps[0].Product)
}

func TestTask_Defaults(t *testing.T) {
	n := testNormalizer()

	task := n.Task(decode[TaskRecord](t, `{
		"title":"Order developer","status":"In-Progress","reminderEnabled":"true",
		"attachments":[{"name":"invoice","url":"https://x/invoice.pdf","size":1200},{"name":"broken","url":" "}]
	}`))
	assert.Equal(t, models.TaskInProgress, task.Status)
	assert.True(t, task.ReminderEnabled)
	require.Len(t, task.Attachments, 1)
	assert.NotEmpty(t, task.Attachments[0].ID)
	assert.Equal(t, int64(1200), task.Attachments[0].Size)

	oversized := n.Task(decode[TaskRecord](t, `{"title":"x","attachments":[{"url":"https://x/a","size":1e30}]}`))
	require.Len(t, oversized.Attachments, 1)
	assert.Equal(t, int64(0), oversized.Attachments[0].Size)

	other := n.Task(decode[TaskRecord](t, `{"title":"x","status":"archived"}`))
	assert.Equal(t, models.TaskPending, other.Status)
}

func TestIdempotence(t *testing.T) {
	n := testNormalizer()

	clients := []string{
		`{"name":"Jane Doe","tags":["a"," b "]}`,
		`{"id":"c2","name":"Madonna","phone":12345,"createdAt":"2025-01-01T00:00:00.123456789Z"}`,
		`{"firstName":"Avery","lastName":"Chen","inviteToken":"abcDEF1234","inviteUpdatedAt":1760000000000}`,
		`{}`,
	}
	for _, raw := range clients {
		once := n.Client(decode[ClientRecord](t, raw))
		assert.Equal(t, once, again(t, once, n.Client), raw)
	}

	appointments := []string{
		`{"service":"Cut","durationMinutes":30,"status":"canceled","startAt":"2026-01-01T09:00:00-03:00"}`,
		`{"clientId":"c1","serviceName":"Color","startAt":1760000000000,"durationMin":75.6}`,
		`{"serviceName":"Cut","durationMin":1e20,"createdAt":9e15}`,
		`{}`,
	}
	for _, raw := range appointments {
		once := n.Appointment(decode[AppointmentRecord](t, raw))
		assert.Equal(t, once, again(t, once, n.Appointment), raw)
	}

	formulas := []string{
		`{"service":"Gloss","grams":20,"processingTime":"20"}`,
		`{"title":"Lift","steps":[{"product":"Bleach","grams":-1},{"stepName":"Tone","product":"9V"}]}`,
		`{}`,
	}
	for _, raw := range formulas {
		once := n.Formula(decode[FormulaRecord](t, raw))
		assert.Equal(t, once, again(t, once, n.Formula), raw)
	}

	tasks := []string{
		`{"title":"Call","attachments":[{"url":"https://x/y.png"}],"dueAt":"2026-11-01T10:00:00Z"}`,
		`{"title":"Big","attachments":[{"url":"https://x/z","size":1e30}]}`,
		`{}`,
	}
	for _, raw := range tasks {
		once := n.Task(decode[TaskRecord](t, raw))
		assert.Equal(t, once, again(t, once, n.Task), raw)
	}
}

func TestValidate(t *testing.T) {
	var ve *ValidationError

	err := ValidateClient(models.Client{FirstName: " "})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "firstName", ve.Field)

	err = ValidateClient(models.Client{FirstName: "A", Email: "nope"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
	assert.NoError(t, ValidateClient(models.Client{FirstName: "A", Email: "a@b.co"}))

	err = ValidateAppointment(models.Appointment{ClientID: "c1", StartAt: fixedNow})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "serviceName", ve.Field)
	assert.NoError(t, ValidateAppointment(models.Appointment{ClientID: "c1", ServiceName: "Cut", StartAt: fixedNow}))

	err = ValidateFormula(models.Formula{Title: "Gloss", Steps: []models.FormulaStep{{Product: "9V"}, {StepName: "x"}}})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "steps[1].product", ve.Field)

	assert.Error(t, ValidateTask(models.Task{}))
}

func TestRequire(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		field string
	}{
		{"client legacy name", RequireClient(decode[ClientRecord](t, `{"name":"Jane Doe"}`)), ""},
		{"client empty", RequireClient(decode[ClientRecord](t, `{"firstName":"  "}`)), "firstName"},
		{"appointment ok", RequireAppointment(decode[AppointmentRecord](t, `{"clientId":"c","service":"Cut","startAt":"2026-01-01T10:00:00Z"}`)), ""},
		{"appointment no start", RequireAppointment(decode[AppointmentRecord](t, `{"clientId":"c","serviceName":"Cut"}`)), "startAt"},
		{"appointment bad start", RequireAppointment(decode[AppointmentRecord](t, `{"clientId":"c","serviceName":"Cut","startAt":"soon"}`)), "startAt"},
		{"appointment no client", RequireAppointment(decode[AppointmentRecord](t, `{"serviceName":"Cut"}`)), "clientId"},
		{"formula legacy service", RequireFormula(decode[FormulaRecord](t, `{"service":"Gloss"}`)), ""},
		{"formula empty title", RequireFormula(decode[FormulaRecord](t, `{"title":""}`)), "title"},
		{"task empty", RequireTask(decode[TaskRecord](t, `{}`)), "title"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.field == "" {
				assert.NoError(t, tc.err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, tc.err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}
