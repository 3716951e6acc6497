package master

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/holiday"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/master/position"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/validator"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newService() (MasterService, employee.EmployeeRepository) {
	store := memory.NewStore()
	return NewMasterService(memory.NewPositionRepository(store), memory.NewHolidayRepository(store)), memory.NewEmployeeRepository(store)
}

func TestCreatePosition_DefaultsMultipliers(t *testing.T) {
	svc, _ := newService()

	resp, err := svc.CreatePosition(context.Background(), position.CreatePositionRequest{
		Name:              "Cook",
		RatePolicyRequest: position.RatePolicyRequest{ContractType: "hourly", HourlyRate: dec("1000")},
	})

	require.NoError(t, err)
	assert.True(t, resp.RatePolicy.OvertimeMultiplier.Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, resp.RatePolicy.WeekendMultiplier.Equal(decimal.NewFromInt(1)))
	assert.True(t, resp.RatePolicy.HolidayMultiplier.Equal(decimal.NewFromInt(1)))
	require.NotNil(t, resp.EffectiveHourlyRate)
	assert.Equal(t, "1000", resp.EffectiveHourlyRate.String())
}

func TestCreatePosition_SalariedRate(t *testing.T) {
	svc, _ := newService()

	resp, err := svc.CreatePosition(context.Background(), position.CreatePositionRequest{
		Name: "Manager",
		RatePolicyRequest: position.RatePolicyRequest{
			ContractType:           "full_time",
			BaseSalary:             dec("1000"),
			StandardHoursPerPeriod: dec("3"),
		},
	})

	require.NoError(t, err)
	require.NotNil(t, resp.EffectiveHourlyRate)
	assert.Equal(t, "333.3333", resp.EffectiveHourlyRate.String())
}

func TestCreatePosition_Validation(t *testing.T) {
	svc, _ := newService()

	tests := []struct {
		name  string
		req   position.RatePolicyRequest
		field string
	}{
		{"unknown contract", position.RatePolicyRequest{ContractType: "freelance"}, "contract_type"},
		{"hourly without rate", position.RatePolicyRequest{ContractType: "hourly"}, "hourly_rate"},
		{"salaried without base", position.RatePolicyRequest{ContractType: "part_time", StandardHoursPerPeriod: dec("80")}, "base_salary"},
		{"multiplier below one", position.RatePolicyRequest{ContractType: "hourly", HourlyRate: dec("10"), OvertimeMultiplier: dec("0.9")}, "overtime_multiplier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePosition(context.Background(), position.CreatePositionRequest{Name: "Cook", RatePolicyRequest: tt.req})
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}
}

func TestPosition_UpdateAndDelete(t *testing.T) {
	svc, employees := newService()
	ctx := context.Background()
	created, err := svc.CreatePosition(ctx, position.CreatePositionRequest{
		Name:              "Cook",
		RatePolicyRequest: position.RatePolicyRequest{ContractType: "hourly", HourlyRate: dec("1000")},
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePosition(ctx, position.UpdatePositionRequest{
		ID:                created.ID,
		Name:              "Head cook",
		RatePolicyRequest: position.RatePolicyRequest{ContractType: "hourly", HourlyRate: dec("1200")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Head cook", updated.Name)
	assert.Equal(t, "1200", updated.RatePolicy.HourlyRate.String())

	_, err = employees.Create(ctx, employee.Employee{FullName: "Ana", Email: "ana@x.com", PositionID: &created.ID, IsActive: true})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeletePosition(ctx, created.ID), position.ErrPositionInUse)
}

func TestHolidays(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.CreateHoliday(ctx, holiday.CreateHolidayRequest{Date: "2026-05-01", Name: "Labour Day", Type: "national"})
	require.NoError(t, err)
	_, err = svc.CreateHoliday(ctx, holiday.CreateHolidayRequest{Date: "2025-12-25", Name: "Christmas", Type: "national"})
	require.NoError(t, err)

	_, err = svc.CreateHoliday(ctx, holiday.CreateHolidayRequest{Date: "2026-05-01", Name: "Again", Type: "local"})
	assert.ErrorIs(t, err, holiday.ErrHolidayDateExists)

	_, err = svc.CreateHoliday(ctx, holiday.CreateHolidayRequest{Date: "01/05/2026", Name: "Bad", Type: "other"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	year := 2026
	list, err := svc.ListHolidays(ctx, holiday.HolidayFilter{Year: &year})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2026-05-01", list[0].Date)

	all, err := svc.ListHolidays(ctx, holiday.HolidayFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2025-12-25", all[0].Date)

	require.NoError(t, svc.DeleteHoliday(ctx, all[0].ID))
	assert.ErrorIs(t, svc.DeleteHoliday(ctx, all[0].ID), holiday.ErrHolidayNotFound)
}
