// Package reconcile projects raw remote records onto the typed entities in
// package models, and maps typed input back onto remote field names.
//
// The remote lists were written by several generations of clients, so the
// same attribute may appear under different field names. Every accepted
// spelling is listed in Aliases; nothing outside this package knows about
// remote field names.
package reconcile

import (
	"strings"

	"github.com/dmitrijs2005/cargotrack/internal/ident"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
)

// Attr names a canonical attribute of an entity.
type Attr string

const (
	AttrID               Attr = "id"
	AttrSiteID           Attr = "siteId"
	AttrName             Attr = "name"
	AttrPlate            Attr = "plate"
	AttrFullName         Attr = "fullName"
	AttrLogin            Attr = "login"
	AttrPassword         Attr = "password"
	AttrAccessLevel      Attr = "accessLevel"
	AttrTruckID          Attr = "truckId"
	AttrDriverID         Attr = "driverId"
	AttrType             Attr = "type"
	AttrStatus           Attr = "status"
	AttrExpectedKm       Attr = "expectedKm"
	AttrCreatedAt        Attr = "createdAt"
	AttrStartAt          Attr = "startAt"
	AttrExpectedReturnAt Attr = "expectedReturnAt"
	AttrActualArrival    Attr = "actualArrival"
	AttrActualKm         Attr = "actualKm"
	AttrGapMinutes       Attr = "gapMinutes"
	AttrGapNote          Attr = "gapNote"
	AttrDelayMinutes     Attr = "delayMinutes"
	AttrDelayNote        Attr = "delayNote"
)

// Remote field names used when writing.
const (
	FieldID               = "id"
	FieldTitle            = "Title"
	FieldSiteID           = "PlantaID"
	FieldSiteName         = "NomedaUnidade"
	FieldPlate            = "Placa"
	FieldDriverName       = "NomedoMotorista"
	FieldFullName         = "NomeCompleto"
	FieldLogin            = "LoginUsuario"
	FieldPassword         = "SenhaUsuario"
	FieldAccessLevel      = "NivelAcesso"
	FieldTruckID          = "CaminhaoId"
	FieldDriverID         = "MotoristaId"
	FieldLoadType         = "TipoCarga"
	FieldExpectedKm       = "KmPrevisto"
	FieldStatus           = "StatusCarga"
	FieldCreatedAt        = "DataCriacao"
	FieldStartAt          = "DataInicio"
	FieldExpectedReturnAt = "VoltaPrevista"
	FieldActualKm         = "KmReal"
	FieldActualArrival    = "ChegadaReal"
	FieldGapMinutes       = "Diff1_Gap"
	FieldGapNote          = "Diff1_Justificativa"
	FieldDelayMinutes     = "Diff2_Atraso"
	FieldDelayNote        = "Diff2_Justificativa"
)

var siteRef = []string{"PlantaId", "PlantaID", "plantaId"}

// Aliases lists, per kind and attribute, the remote field names to try in
// order. The first one holding a non-empty value wins.
var Aliases = map[models.Kind]map[Attr][]string{
	models.KindSite: {
		AttrID:     {FieldID},
		AttrSiteID: append(append([]string{}, siteRef...), FieldID),
		AttrName:   {FieldSiteName, FieldTitle},
	},
	models.KindTruck: {
		AttrID:     {FieldID},
		AttrSiteID: siteRef,
		AttrPlate:  {FieldPlate, FieldTitle},
	},
	models.KindDriver: {
		AttrID:     {FieldID},
		AttrSiteID: siteRef,
		AttrName:   {FieldDriverName, FieldTitle},
	},
	models.KindUser: {
		AttrID:          {FieldID},
		AttrSiteID:      siteRef,
		AttrFullName:    {FieldFullName, FieldTitle},
		AttrLogin:       {FieldLogin},
		AttrPassword:    {FieldPassword},
		AttrAccessLevel: {FieldAccessLevel},
	},
	models.KindLoad: {
		AttrID:               {FieldID},
		AttrSiteID:           siteRef,
		AttrTruckID:          {"CaminhaoId", "CaminhaoID"},
		AttrDriverID:         {"MotoristaId", "MotoristaID"},
		AttrType:             {FieldLoadType},
		AttrStatus:           {FieldStatus},
		AttrExpectedKm:       {FieldExpectedKm},
		AttrCreatedAt:        {FieldCreatedAt},
		AttrStartAt:          {FieldStartAt},
		AttrExpectedReturnAt: {FieldExpectedReturnAt},
		AttrActualArrival:    {FieldActualArrival},
		AttrActualKm:         {FieldActualKm},
		AttrGapMinutes:       {FieldGapMinutes},
		AttrGapNote:          {FieldGapNote, "Diff1_Jusitificativa"},
		AttrDelayMinutes:     {FieldDelayMinutes, "Diff2.Atraso"},
		AttrDelayNote:        {FieldDelayNote, "Diff2.Justificativa"},
	},
}

// Lookup returns the alias list for kind and attr, or nil if none is known.
func Lookup(kind models.Kind, attr Attr) []string {
	return Aliases[kind][attr]
}

// Resolve returns the normalized value of the first alias present in r with
// a non-empty value, or "" when none is.
func Resolve(r remote.Record, aliases []string) string {
	for _, name := range aliases {
		if s := ident.Normalize(r[name]); s != "" {
			return s
		}
	}
	return ""
}

// raw returns the first non-empty raw value among aliases.
func raw(r remote.Record, aliases []string) (any, bool) {
	for _, name := range aliases {
		v, ok := r[name]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func field(r remote.Record, kind models.Kind, attr Attr) string {
	return Resolve(r, Lookup(kind, attr))
}

func rawField(r remote.Record, kind models.Kind, attr Attr) (any, bool) {
	return raw(r, Lookup(kind, attr))
}
