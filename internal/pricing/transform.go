package pricing

import (
	"math"
	"regexp"

	"github.com/joineryai/quote-engine/internal/entity"
)

var deliveryLineRe = regexp.MustCompile(`(?i)\b(delivery|carriage|shipping|transport)\b`)

// BuildClientQuote turns supplier line items into a client-facing quote:
// delivery charges are split out, optionally amalgamated into product prices
// pro rata to line totals, markup and VAT are applied, and every monetary
// step is rounded to cfg.RoundTo decimal places.
func BuildClientQuote(parsed entity.ParsedSupplierQuote, cfg entity.PricingConfig) entity.ClientFacingQuote {
	if cfg.RoundTo <= 0 {
		cfg.RoundTo = 2
	}

	currency := "GBP"
	if parsed.Currency != nil && *parsed.Currency != "" {
		currency = *parsed.Currency
	}

	var products []entity.LineItem
	deliveryTotal := 0.0
	for _, line := range parsed.Lines {
		if deliveryLineRe.MatchString(line.Description) {
			deliveryTotal += line.Total
			continue
		}
		products = append(products, line)
	}

	out := entity.ClientFacingQuote{
		Currency:      currency,
		MarkupPercent: cfg.MarkupPercent,
		VATPercent:    cfg.VATPercent,
	}
	if deliveryTotal > 0 {
		d := roundTo(deliveryTotal, cfg.RoundTo)
		out.SupplierDeliveryTotal = &d
	}

	allocations := make([]float64, len(products))
	if cfg.AmalgamateDelivery && deliveryTotal > 0 {
		allocations = allocateDelivery(products, deliveryTotal, cfg.RoundTo)
	}

	markup := 1 + cfg.MarkupPercent/100
	subtotal := 0.0
	for i, p := range products {
		qty := p.Qty
		var baseUnit float64
		if qty > 0 {
			baseUnit = roundTo((p.Total+allocations[i])/qty, cfg.RoundTo)
		} else {
			qty = 1
			baseUnit = roundTo(p.UnitPrice+allocations[i], cfg.RoundTo)
		}
		unitUp := roundTo(baseUnit*markup, cfg.RoundTo)
		totalUp := roundTo(unitUp*qty, cfg.RoundTo)
		subtotal += totalUp
		out.Lines = append(out.Lines, entity.PricedLine{
			Description:       p.Description,
			Qty:               qty,
			UnitPrice:         p.UnitPrice,
			Total:             p.Total,
			UnitPriceMarkedUp: unitUp,
			TotalMarkedUp:     totalUp,
		})
	}

	if !cfg.AmalgamateDelivery && deliveryTotal > 0 {
		charge := deliveryTotal
		if cfg.MarkupDelivery {
			charge = charge * markup
		}
		charge = roundTo(charge, cfg.RoundTo)
		out.Lines = append(out.Lines, entity.PricedLine{
			Description:       "Delivery",
			Qty:               1,
			UnitPrice:         deliveryTotal,
			Total:             deliveryTotal,
			UnitPriceMarkedUp: charge,
			TotalMarkedUp:     charge,
		})
		subtotal += charge
	}

	// A flat client-facing delivery charge is its own line regardless of how
	// the supplier delivery cost was handled above. It has no supplier cost
	// and markup never applies to it.
	if cfg.ClientDeliveryGBP != nil {
		charge := roundTo(*cfg.ClientDeliveryGBP, cfg.RoundTo)
		out.ClientDeliveryCharge = &charge
		desc := "Delivery"
		if cfg.ClientDeliveryDescription != nil && *cfg.ClientDeliveryDescription != "" {
			desc = *cfg.ClientDeliveryDescription
		}
		out.Lines = append(out.Lines, entity.PricedLine{
			Description:       desc,
			Qty:               1,
			UnitPrice:         0,
			Total:             0,
			UnitPriceMarkedUp: charge,
			TotalMarkedUp:     charge,
		})
		subtotal += charge
	}

	out.Subtotal = roundTo(subtotal, cfg.RoundTo)
	if cfg.VATPercent > 0 {
		out.VATAmount = roundTo(out.Subtotal*cfg.VATPercent/100, cfg.RoundTo)
	}
	out.GrandTotal = roundTo(out.Subtotal+out.VATAmount, cfg.RoundTo)
	return out
}

// allocateDelivery splits the delivery total across product lines pro rata
// to their line totals. The last line absorbs the rounding residual so the
// allocations always sum exactly to the delivery total.
func allocateDelivery(products []entity.LineItem, deliveryTotal float64, places int) []float64 {
	allocations := make([]float64, len(products))
	if len(products) == 0 {
		return allocations
	}
	productSum := 0.0
	for _, p := range products {
		productSum += p.Total
	}
	if productSum <= 0 {
		// No basis for proportions, split evenly.
		even := roundTo(deliveryTotal/float64(len(products)), places)
		for i := range allocations {
			allocations[i] = even
		}
		allocations[len(allocations)-1] = roundTo(deliveryTotal-even*float64(len(products)-1), places)
		return allocations
	}
	allocated := 0.0
	for i, p := range products {
		if i == len(products)-1 {
			allocations[i] = roundTo(deliveryTotal-allocated, places)
			break
		}
		share := roundTo(deliveryTotal*p.Total/productSum, places)
		allocations[i] = share
		allocated += share
	}
	return allocations
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow10(places)
	return math.Round(v*pow) / pow
}
