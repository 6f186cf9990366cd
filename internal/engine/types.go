// Package engine implements the deterministic IEI scoring and price
// estimation engine. It is pure: all functions are free of I/O and shared
// state, operating on an explicit zone table snapshot.
package engine

import "fmt"

// PropertyType is the closed set of supported property typologies.
// Wire values follow the intake contract.
type PropertyType string

const (
	TypePiso        PropertyType = "piso"
	TypeAtico       PropertyType = "atico"
	TypePlantaBaja  PropertyType = "planta_baja"
	TypeCasaAdosada PropertyType = "casa_adosada"
	TypeChalet      PropertyType = "chalet"
)

// ParsePropertyType validates a raw property type value. Unknown values fail
// closed rather than defaulting.
func ParsePropertyType(raw string) (PropertyType, error) {
	switch t := PropertyType(raw); t {
	case TypePiso, TypeAtico, TypePlantaBaja, TypeCasaAdosada, TypeChalet:
		return t, nil
	}
	return "", fmt.Errorf("unknown property type %q", raw)
}

// Condition is the closed, ordered set of property conditions.
type Condition string

const (
	CondReformado        Condition = "reformado"
	CondBuenEstado       Condition = "buen_estado"
	CondReformarParcial  Condition = "a_reformar_parcial"
	CondReformarIntegral Condition = "a_reformar_integral"
)

// ParseCondition validates a raw condition value.
func ParseCondition(raw string) (Condition, error) {
	switch c := Condition(raw); c {
	case CondReformado, CondBuenEstado, CondReformarParcial, CondReformarIntegral:
		return c, nil
	}
	return "", fmt.Errorf("unknown property condition %q", raw)
}

// SaleHorizon is the owner's declared sale time frame, ordered from most to
// least urgent.
type SaleHorizon string

const (
	HorizonUnder3M   SaleHorizon = "<3m"
	Horizon3To6M     SaleHorizon = "3-6m"
	Horizon6To12M    SaleHorizon = "6-12m"
	HorizonValorando SaleHorizon = "valorando"
)

// ParseSaleHorizon validates a raw sale horizon value.
func ParseSaleHorizon(raw string) (SaleHorizon, error) {
	switch h := SaleHorizon(raw); h {
	case HorizonUnder3M, Horizon3To6M, Horizon6To12M, HorizonValorando:
		return h, nil
	}
	return "", fmt.Errorf("unknown sale horizon %q", raw)
}

// Motivation is the owner's reason for selling.
type Motivation string

const (
	MotivTraslado   Motivation = "traslado"
	MotivHerencia   Motivation = "herencia"
	MotivDivorcio   Motivation = "divorcio"
	MotivFinanzas   Motivation = "finanzas"
	MotivMejora     Motivation = "mejora"
	MotivCompraOtra Motivation = "compra_otra"
	MotivInversion  Motivation = "inversion"
	MotivCuriosidad Motivation = "curiosidad"
	MotivOtro       Motivation = "otro"
)

// ParseMotivation validates a raw motivation value.
func ParseMotivation(raw string) (Motivation, error) {
	switch m := Motivation(raw); m {
	case MotivTraslado, MotivHerencia, MotivDivorcio, MotivFinanzas,
		MotivMejora, MotivCompraOtra, MotivInversion, MotivCuriosidad, MotivOtro:
		return m, nil
	}
	return "", fmt.Errorf("unknown motivation %q", raw)
}

// ListingStatus records whether the property is already on the market.
type ListingStatus string

const (
	ListedNo         ListingStatus = "no"
	ListedWithAgency ListingStatus = "si_con_agencia"
	ListedPrivately  ListingStatus = "si_por_su_cuenta"
)

// ParseListingStatus validates a raw listing status value.
func ParseListingStatus(raw string) (ListingStatus, error) {
	switch l := ListingStatus(raw); l {
	case ListedNo, ListedWithAgency, ListedPrivately:
		return l, nil
	}
	return "", fmt.Errorf("unknown listing status %q", raw)
}

// Exclusivity is the owner's disposition towards an exclusive mandate.
type Exclusivity string

const (
	ExclusivitySi      Exclusivity = "si"
	ExclusivityDepende Exclusivity = "depende"
	ExclusivityNo      Exclusivity = "no"
)

// ParseExclusivity validates a raw exclusivity value.
func ParseExclusivity(raw string) (Exclusivity, error) {
	switch e := Exclusivity(raw); e {
	case ExclusivitySi, ExclusivityDepende, ExclusivityNo:
		return e, nil
	}
	return "", fmt.Errorf("unknown exclusivity disposition %q", raw)
}

// DemandLevel qualifies how liquid a zone's market is.
type DemandLevel string

const (
	DemandAlta  DemandLevel = "alta"
	DemandMedia DemandLevel = "media"
	DemandBaja  DemandLevel = "baja"
)

// ParseDemandLevel validates a raw demand level value.
func ParseDemandLevel(raw string) (DemandLevel, error) {
	switch d := DemandLevel(raw); d {
	case DemandAlta, DemandMedia, DemandBaja:
		return d, nil
	}
	return "", fmt.Errorf("unknown demand level %q", raw)
}

// Tier is the coarse lead quality classification, A (best) through D (worst),
// derived solely from the total IEI score.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// ParseTier validates a raw tier value.
func ParseTier(raw string) (Tier, error) {
	switch t := Tier(raw); t {
	case TierA, TierB, TierC, TierD:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q", raw)
}
