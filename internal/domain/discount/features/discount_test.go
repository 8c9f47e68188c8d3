package features

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"gamestore/internal/domain/discount"
)

type discountTestContext struct {
	lines     []discount.Line
	breakdown discount.Breakdown
	computed  bool
}

func (c *discountTestContext) reset() {
	c.lines = nil
	c.breakdown = discount.Breakdown{}
	c.computed = false
}

func (c *discountTestContext) aCartLinePricedWithQuantity(price, qty int) error {
	c.lines = append(c.lines, discount.Line{UnitPrice: int64(price), Quantity: qty})
	return nil
}

func (c *discountTestContext) iComputeTheTotal() error {
	c.breakdown = discount.Quote(c.lines)
	c.computed = true
	if got := discount.ComputeTotal(c.lines); got != c.breakdown.Total {
		return fmt.Errorf("ComputeTotal=%d disagrees with Quote.Total=%d", got, c.breakdown.Total)
	}
	return nil
}

func (c *discountTestContext) theTotalIs(total int) error {
	if !c.computed {
		return errors.New("total was not computed")
	}
	if c.breakdown.Total != int64(total) {
		return fmt.Errorf("expected total %d, got %d", total, c.breakdown.Total)
	}
	return nil
}

func (c *discountTestContext) theSavingsAre(savings int) error {
	if c.breakdown.Savings != int64(savings) {
		return fmt.Errorf("expected savings %d, got %d", savings, c.breakdown.Savings)
	}
	return nil
}

func (c *discountTestContext) theActiveTierIsPercent(pct int) error {
	tier, ok := discount.ActiveTier(c.breakdown.TotalUnits)
	if !ok {
		return fmt.Errorf("expected an active tier for %d units", c.breakdown.TotalUnits)
	}
	if tier.Percent != pct {
		return fmt.Errorf("expected %d percent, got %d", pct, tier.Percent)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &discountTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a cart line priced (\d+) with quantity (\d+)$`, tc.aCartLinePricedWithQuantity)
	ctx.Step(`^I compute the total$`, tc.iComputeTheTotal)
	ctx.Step(`^the total is (\d+)$`, tc.theTotalIs)
	ctx.Step(`^the savings are (\d+)$`, tc.theSavingsAre)
	ctx.Step(`^the active tier is (\d+) percent$`, tc.theActiveTierIsPercent)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"discount.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
