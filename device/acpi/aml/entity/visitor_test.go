package entity

import "testing"

func TestVisit(t *testing.T) {
	ns := NewNamespace()
	root := ns.Root()

	mustCreate := func(scope *Object, name string, v Value) *Object {
		obj, err := ns.Create(scope, name, v)
		if err != nil {
			t.Fatal(err)
		}
		return obj
	}

	dev := mustCreate(root, "DEV0", &Device{})
	mustCreate(dev, "MTH0", &Method{})
	mustCreate(dev, "MTH1", &Method{})
	mustCreate(root, "CPU0", &Processor{})
	mustCreate(root, "PWR0", &PowerResource{})
	tz := mustCreate(root, "TZ00", &ThermalZone{})
	mustCreate(tz, "MTH2", &Method{})
	mustCreate(root, "MTX0", &Mutex{})
	mustCreate(root, "EVT0", &Event{})

	keepRecursing := func(int, *Object) bool { return true }
	stopRecursing := func(int, *Object) bool { return false }

	specs := []struct {
		searchType      Type
		keepRecursingFn Visitor
		wantHits        int
	}{
		{TypeAny, keepRecursing, 10},
		{TypeAny, stopRecursing, 1},
		{
			TypeAny,
			func(_ int, obj *Object) bool {
				// Skip the contents of the device
				return obj.Name() != "DEV0"
			},
			8,
		},
		{TypeDevice, keepRecursing, 1},
		{TypeProcessor, keepRecursing, 1},
		{TypePowerResource, keepRecursing, 1},
		{TypeThermalZone, keepRecursing, 1},
		{TypeMethod, keepRecursing, 3},
		{TypeMutex, keepRecursing, 1},
		{TypeEvent, keepRecursing, 1},
		{TypeFieldUnit, keepRecursing, 0},
	}

	for specIndex, spec := range specs {
		var visitCount int
		Visit(0, root, spec.searchType, func(depth int, obj *Object) bool {
			visitCount++
			return spec.keepRecursingFn(depth, obj)
		})

		if visitCount != spec.wantHits {
			t.Errorf("[spec %02d] expected visitor to be called %d times; got %d", specIndex, spec.wantHits, visitCount)
		}
	}
}
