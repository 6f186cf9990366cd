// simulate-leads posts synthetic lead submissions against a running API.
// Useful for smoke testing the intake path and exercising the rate limiter.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"iei_backend/internal/leads/transport"
)

var (
	zoneKeys      = []string{"castelldefels", "gava", "sitges", "viladecans", "sant_boi"}
	propertyTypes = []string{"piso", "atico", "planta_baja", "casa_adosada", "chalet"}
	conditions    = []string{"reformado", "buen_estado", "a_reformar_parcial", "a_reformar_integral"}
	horizons      = []string{"<3m", "3-6m", "6-12m", "valorando"}
	motivations   = []string{"herencia", "divorcio", "traslado", "compra_otra", "finanzas", "otro"}
	listed        = []string{"no", "si_por_su_cuenta", "si_con_agencia"}
	exclusivity   = []string{"si", "no", "depende"}
	firstNames    = []string{"Maria", "Jordi", "Laura", "Marc", "Nuria", "Pau", "Carla", "Sergi"}
	lastNames     = []string{"Garcia", "Serra", "Puig", "Vila", "Roca", "Font", "Sala", "Bosch"}
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the API")
	count := flag.Int("count", 50, "number of leads to submit")
	concurrency := flag.Int("concurrency", 4, "number of concurrent submitters")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	payloads := make([]transport.IntakeLeadRequest, *count)
	for i := range payloads {
		payloads[i] = randomLead(rng, i)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	url := *addr + "/api/v1/leads"

	var submitted, failed atomic.Int64
	start := time.Now()

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*concurrency)
	for _, payload := range payloads {
		g.Go(func() error {
			if err := submit(ctx, client, url, payload); err != nil {
				failed.Add(1)
				fmt.Printf("submit failed: %v\n", err)
				return nil
			}
			submitted.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("done: %d submitted, %d failed in %s\n",
		submitted.Load(), failed.Load(), time.Since(start).Round(time.Millisecond))
}

func submit(ctx context.Context, client *http.Client, url string, payload transport.IntakeLeadRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", payload.Property.ZoneKey, resp.StatusCode, msg)
	}
	return nil
}

func randomLead(rng *rand.Rand, i int) transport.IntakeLeadRequest {
	name := pick(rng, firstNames) + " " + pick(rng, lastNames)
	m2 := 45 + rng.Float64()*160
	year := 1950 + rng.Intn(74)
	expected := 150000 + rng.Float64()*600000
	source := "simulator"

	property := transport.PropertyPayload{
		ZoneKey:      pick(rng, zoneKeys),
		Municipality: "Baix Llobregat",
		PropertyType: pick(rng, propertyTypes),
		M2:           float64(int(m2)),
		Condition:    pick(rng, conditions),
		YearBuilt:    &year,
		HasElevator:  rng.Intn(2) == 0,
		HasTerrace:   rng.Intn(3) == 0,
		HasParking:   rng.Intn(3) == 0,
		HasViews:     rng.Intn(4) == 0,
	}
	if property.HasTerrace {
		terrace := float64(4 + rng.Intn(20))
		property.TerraceM2 = &terrace
	}

	return transport.IntakeLeadRequest{
		Contact: transport.ContactPayload{
			Name:  name,
			Phone: fmt.Sprintf("+3466%07d", rng.Intn(10000000)),
			Email: fmt.Sprintf("sim-%d@example.com", i),
		},
		Property: property,
		Signals: transport.SignalsPayload{
			SaleHorizon:   pick(rng, horizons),
			Motivation:    pick(rng, motivations),
			AlreadyListed: pick(rng, listed),
			Exclusivity:   pick(rng, exclusivity),
			ExpectedPrice: &expected,
		},
		Source: &source,
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
