package handler

import (
	"reflect"
	"strings"

	"github.com/vingarzan/homebridge-nibe/internal/entity"
	"github.com/vingarzan/homebridge-nibe/internal/uplink"
)

// manufacturer reported for every published entity.
const manufacturer = "Nibe"

// builtinParameterTags are the category types served by the generic
// parameter handler.
var builtinParameterTags = []string{
	"STATUS",
	"CLIMATE_SYSTEM",
	"VENTILATION",
	"ADDITION",
	"HOT_WATER",
}

// RegisterBuiltins registers the handlers shipped with the bridge:
// the SYSTEM_INFO handler plus a generic parameter handler for each known
// sensor category.
func RegisterBuiltins(r *Registry) error {
	if err := r.Register(uplink.CategorySystemInfo, newSystemInfoHandler); err != nil {
		return err
	}
	for _, tag := range builtinParameterTags {
		tag := tag
		err := r.Register(tag, func(deps Deps) (Handler, error) {
			return &parameterHandler{translator: deps.Translator}, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// parameterHandler is the generic handler for sensor categories: every
// parameter becomes one state key holding its display value.
type parameterHandler struct {
	translator Translator
}

func (h *parameterHandler) Build(unit uplink.Unit, cat uplink.Category, desc uplink.Descriptor) (*entity.Entity, error) {
	model := desc.Product
	if model == "" {
		model = unit.Product
	}

	return &entity.Entity{
		ID:           entity.Identity(unit.UnitID, cat.ID),
		Name:         h.displayName(cat),
		UnitID:       unit.UnitID,
		CategoryID:   cat.ID,
		CategoryType: strings.ToLower(cat.ID),
		Manufacturer: manufacturer,
		Model:        model,
		SerialNumber: desc.SerialNumber,
		State:        stateFrom(cat),
	}, nil
}

func (h *parameterHandler) Update(e *entity.Entity, unit uplink.Unit, cat uplink.Category) (bool, error) {
	state := stateFrom(cat)
	if reflect.DeepEqual(e.State, state) {
		return false, nil
	}
	e.State = state
	return true, nil
}

// displayName resolves the entity name for a category. A "<tag>.label"
// translation wins, then a bare "<tag>" leaf, then the name the API sent,
// then the raw tag.
func (h *parameterHandler) displayName(cat uplink.Category) string {
	tag := strings.ToLower(cat.ID)
	if h.translator != nil {
		if name, ok := h.translator.Translate(tag + ".label"); ok {
			return name
		}
		if name, ok := h.translator.Translate(tag); ok {
			return name
		}
	}
	if cat.Name != "" {
		return cat.Name
	}
	return cat.ID
}

// stateFrom flattens a category's parameters into entity state.
func stateFrom(cat uplink.Category) entity.State {
	state := make(entity.State, len(cat.Parameters))
	for _, p := range cat.Parameters {
		state[p.Key] = p.DisplayValue
	}
	return state
}

// systemInfoHandler serves the SYSTEM_INFO category. On top of the generic
// parameter behaviour it keeps the entity's device metadata in sync with
// the descriptor-bearing parameters.
type systemInfoHandler struct {
	parameterHandler
}

func newSystemInfoHandler(deps Deps) (Handler, error) {
	return &systemInfoHandler{parameterHandler{translator: deps.Translator}}, nil
}

func (h *systemInfoHandler) Build(unit uplink.Unit, cat uplink.Category, desc uplink.Descriptor) (*entity.Entity, error) {
	e, err := h.parameterHandler.Build(unit, cat, desc)
	if err != nil {
		return nil, err
	}
	applyMetadata(e, cat)
	return e, nil
}

func (h *systemInfoHandler) Update(e *entity.Entity, unit uplink.Unit, cat uplink.Category) (bool, error) {
	changed, err := h.parameterHandler.Update(e, unit, cat)
	if err != nil {
		return false, err
	}

	before := [2]string{e.Model, e.SerialNumber}
	applyMetadata(e, cat)
	if before != [2]string{e.Model, e.SerialNumber} {
		changed = true
	}

	return changed, nil
}

// applyMetadata copies identity parameters from a SYSTEM_INFO occurrence
// onto the entity, keeping existing values when a parameter is absent.
func applyMetadata(e *entity.Entity, cat uplink.Category) {
	if p, ok := cat.Parameter("PRODUCT"); ok && p.DisplayValue != "" {
		e.Model = p.DisplayValue
	}
	if p, ok := cat.Parameter("SERIAL_NUMBER"); ok && p.DisplayValue != "" {
		e.SerialNumber = p.DisplayValue
	}
}
