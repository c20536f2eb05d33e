package planner

import "errors"

// Planning failures. Every stage returns one of these (possibly wrapped) and the
// whole planning call is abandoned; nothing partial is ever returned.
var (
	ErrLowCPU                  = errors.New("low cpu")
	ErrControllerNotFound      = errors.New("controller not found")
	ErrStorageNotFound         = errors.New("storage not found")
	ErrMineralNotFound         = errors.New("mineral not found")
	ErrControllerPlacement     = errors.New("controller placement failure")
	ErrSourcePlacement         = errors.New("source placement failure")
	ErrMineralPlacement        = errors.New("mineral placement failure")
	ErrContainerPlacement      = errors.New("container placement error")
	ErrCentralSquarePlacement  = errors.New("central square placement error")
	ErrSpawnPlaceNotFound      = errors.New("spawn place not found")
	ErrCentralSquareNotFound   = errors.New("central square not found")
	ErrGuidePointNotFound      = errors.New("guide point not found")
	ErrUnreachableRoom         = errors.New("unreachable room")
	ErrUnreachableResource     = errors.New("unreachable resource")
	ErrStructurePlacement      = errors.New("structure placement failure")
	ErrRoadPlanFailure         = errors.New("road plan failure")
	ErrRoadConnectionFailure   = errors.New("road connection failure")
	ErrRampartPlacement        = errors.New("rampart placement failure")
	ErrPerimeterCreationFailed = errors.New("perimeter creation failed")
	ErrBlueprintCreationFailed = errors.New("blueprint creation failed")
	ErrGridCreationFailed      = errors.New("grid creation failed")
	ErrFarmSuspended           = errors.New("farm suspended")
	ErrAlreadyCreated          = errors.New("already created")
)

var planningErrors = []error{
	ErrLowCPU, ErrControllerNotFound, ErrStorageNotFound, ErrMineralNotFound,
	ErrControllerPlacement, ErrSourcePlacement, ErrMineralPlacement, ErrContainerPlacement,
	ErrCentralSquarePlacement, ErrSpawnPlaceNotFound, ErrCentralSquareNotFound, ErrGuidePointNotFound,
	ErrUnreachableRoom, ErrUnreachableResource, ErrStructurePlacement, ErrRoadPlanFailure,
	ErrRoadConnectionFailure, ErrRampartPlacement, ErrPerimeterCreationFailed, ErrBlueprintCreationFailed,
	ErrGridCreationFailed, ErrFarmSuspended, ErrAlreadyCreated,
}

// IsPlanningError reports whether err is, or wraps, one of the planning failures.
func IsPlanningError(err error) bool {
	for _, target := range planningErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
