// Package delorean validates course change histories: every course must be
// added before it is modified or removed, cannot be added twice while
// present, and cannot be removed while absent.
//
// Quick start:
//
//	c := delorean.New()
//	err := c.CheckDir(ctx, "output/parsed_courses")
//	if err != nil {
//	    var inc *delorean.Inconsistency
//	    if errors.As(err, &inc) {
//	        log.Fatalf("%s: course %s in %s", inc.Kind, inc.Course, inc.File)
//	    }
//	    log.Fatal(err)
//	}
//
// A Checker is safe for concurrent use. For the command-line interface, see
// cmd/delorean.
package delorean
