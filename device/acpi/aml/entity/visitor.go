package entity

// Visitor is a function invoked for each namespace object that matches a
// particular type. The return value controls whether the children of this
// object should also be visited.
type Visitor func(depth int, obj *Object) (keepRecursing bool)

// TypeAny works as a wildcard allowing the visitor to inspect all objects in
// the namespace.
const TypeAny Type = 0xff

// Visit descends the namespace starting at obj and invokes visitorFn for
// each object whose value type matches objType. Objects are visited in
// parent to child order which allows the visitor to signal that the
// children of an object should be skipped. Children of objects that do not
// match objType are always visited.
func Visit(depth int, obj *Object, objType Type, visitorFn Visitor) {
	if obj == nil {
		return
	}

	if objType == TypeAny || (obj.Value != nil && obj.Value.Type() == objType) {
		if !visitorFn(depth, obj) {
			return
		}
	}

	for child := obj.firstChild; child != nil; child = child.next {
		Visit(depth+1, child, objType, visitorFn)
	}
}
