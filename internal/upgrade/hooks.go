package upgrade

// Data migration hooks are registered here. Add new hooks when a schema
// migration requires Go-based data transformation rather than pure SQL.
//
// No hooks are currently registered: migrations 000001-000004 create their
// tables fresh and need no post-migration data transformation. Register one
// here, e.g., if working_hours ever needs a backfill of rows written under
// a prior weekday numbering:
//
//	func init() {
//		RegisterDataHook(1, "001_renumber_weekdays", func(ctx context.Context, db *sql.DB) error {
//			return nil
//		})
//	}
