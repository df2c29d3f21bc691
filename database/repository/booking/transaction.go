package bookingRepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"schedcore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *mongoBookingRepo) ReserveTransactionally(ctx context.Context, appt *models.Appointment) error {
	txnFn := func(sc mongo.SessionContext) error {
		if err := repo.lockResources(sc, appt.ResourceIDs()); err != nil {
			return err
		}
		if err := repo.failOnOverlap(sc, appt.ResourceIDs(), appt.Start, appt.End, ""); err != nil {
			return err
		}
		if _, err := repo.apptColl.InsertOne(sc, appt); err != nil {
			return fmt.Errorf("insert appointment failed: %w", err)
		}
		if err := repo.occupySlots(sc, appt.OrganizerID, appt.ID, appt.Start, appt.End, appt.ResourceTZ); err != nil {
			return err
		}
		return nil
	}
	return repo.runInTransaction(ctx, txnFn)
}

func (repo *mongoBookingRepo) RescheduleTransactionally(ctx context.Context, apptID string, newStart, newEnd time.Time) (*models.Appointment, error) {
	var updated models.Appointment

	txnFn := func(sc mongo.SessionContext) error {
		var appt models.Appointment
		if err := repo.apptColl.FindOne(sc, bson.M{"id": apptID}).Decode(&appt); err != nil {
			if err == mongo.ErrNoDocuments {
				return fmt.Errorf("appointment %s not found", apptID)
			}
			return fmt.Errorf("failed to load appointment %s: %w", apptID, err)
		}

		// Check before any mutation: on conflict the appointment is left
		// exactly as it was.
		if err := repo.lockResources(sc, appt.ResourceIDs()); err != nil {
			return err
		}
		if err := repo.failOnOverlap(sc, appt.ResourceIDs(), newStart, newEnd, apptID); err != nil {
			return err
		}

		update := bson.M{"$set": bson.M{
			"start":      newStart,
			"end":        newEnd,
			"updated_at": time.Now().UTC(),
		}}
		if _, err := repo.apptColl.UpdateOne(sc, bson.M{"id": apptID}, update); err != nil {
			return fmt.Errorf("failed to update appointment interval: %w", err)
		}

		if err := repo.freeSlots(sc, apptID); err != nil {
			return err
		}
		if err := repo.occupySlots(sc, appt.OrganizerID, apptID, newStart, newEnd, appt.ResourceTZ); err != nil {
			return err
		}

		appt.Start = newStart
		appt.End = newEnd
		updated = appt
		return nil
	}

	if err := repo.runInTransaction(ctx, txnFn); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (repo *mongoBookingRepo) ReleaseTransactionally(ctx context.Context, apptID string, from []models.AppointmentStatus, to models.AppointmentStatus, reason string) (*models.Appointment, error) {
	var released models.Appointment

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{"id": apptID, "status": bson.M{"$in": from}}
		set := bson.M{"status": to, "updated_at": time.Now().UTC()}
		if reason != "" {
			set["cancel_reason"] = reason
		}

		res, err := repo.apptColl.UpdateOne(sc, filter, bson.M{"$set": set})
		if err != nil {
			return fmt.Errorf("failed to release appointment %s: %w", apptID, err)
		}
		if res.MatchedCount == 0 {
			return ErrNotReleasable
		}
		if err := repo.freeSlots(sc, apptID); err != nil {
			return err
		}
		if err := repo.apptColl.FindOne(sc, bson.M{"id": apptID}).Decode(&released); err != nil {
			return fmt.Errorf("failed to reload appointment %s: %w", apptID, err)
		}
		return nil
	}

	if err := repo.runInTransaction(ctx, txnFn); err != nil {
		return nil, err
	}
	return &released, nil
}

// lockResources bumps a per-resource marker document for every involved
// resource, in sorted order. Snapshot isolation alone would let two disjoint
// inserts for the same resource both commit without ever conflicting; the
// shared marker write forces concurrent transactions on a resource to collide,
// so one aborts with a transient error and re-runs the overlap check.
func (repo *mongoBookingRepo) lockResources(sc mongo.SessionContext, resourceIDs []string) error {
	ids := append([]string(nil), resourceIDs...)
	sort.Strings(ids)
	for _, id := range ids {
		_, err := repo.lockColl.UpdateOne(sc,
			bson.M{"_id": id},
			bson.M{"$inc": bson.M{"version": 1}},
			options.Update().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("failed to lock resource %s: %w", id, err)
		}
	}
	return nil
}

// failOnOverlap returns a *ConflictError when any active appointment for the
// given resources intersects [start, end). Half-open semantics: back-to-back
// intervals do not collide.
func (repo *mongoBookingRepo) failOnOverlap(sc mongo.SessionContext, resourceIDs []string, start, end time.Time, excludeID string) error {
	filter := bson.M{
		"status": bson.M{"$in": models.ActiveStatuses},
		"start":  bson.M{"$lt": end},
		"end":    bson.M{"$gt": start},
		"$or": bson.A{
			bson.M{"organizer_id": bson.M{"$in": resourceIDs}},
			bson.M{"participant_ids": bson.M{"$in": resourceIDs}},
		},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}

	var existing models.Appointment
	err := repo.apptColl.FindOne(sc, filter).Decode(&existing)
	if err == mongo.ErrNoDocuments {
		return nil
	}
	if err != nil {
		return fmt.Errorf("overlap query failed: %w", err)
	}
	return &ConflictError{
		ConflictingID: existing.ID,
		ResourceID:    existing.OrganizerID,
		Start:         existing.Start,
		End:           existing.End,
	}
}

// occupySlots flips the organizer's timeslots intersecting the interval to
// occupied, with a back-reference to the appointment. Slots are stored in
// resource-local date and minutes, so the UTC interval is translated first.
func (repo *mongoBookingRepo) occupySlots(sc mongo.SessionContext, resourceID, apptID string, start, end time.Time, resourceTZ string) error {
	windows, err := localDayWindows(start, end, resourceTZ)
	if err != nil {
		return err
	}
	for _, w := range windows {
		filter := bson.M{
			"resource_id": resourceID,
			"date":        w.Date,
			"start":       bson.M{"$lt": w.EndMin},
			"end":         bson.M{"$gt": w.StartMin},
			"available":   true,
		}
		update := bson.M{"$set": bson.M{"available": false, "appointment_id": apptID}}
		if _, err := repo.slotColl.UpdateMany(sc, filter, update); err != nil {
			return fmt.Errorf("failed to occupy timeslots on %s: %w", w.Date, err)
		}
	}
	return nil
}

func (repo *mongoBookingRepo) freeSlots(sc mongo.SessionContext, apptID string) error {
	update := bson.M{"$set": bson.M{"available": true, "appointment_id": ""}}
	if _, err := repo.slotColl.UpdateMany(sc, bson.M{"appointment_id": apptID}, update); err != nil {
		return fmt.Errorf("failed to free timeslots for appointment %s: %w", apptID, err)
	}
	return nil
}

// runInTransaction wraps txnFn in sess.WithTransaction, which retries on
// transient transaction errors. When two overlapping bookings race, the loser's
// write conflict surfaces as such an error, the retry re-runs the overlap check
// against the winner's committed state, and the caller gets a *ConflictError
// instead of a raw driver error.
func (repo *mongoBookingRepo) runInTransaction(ctx context.Context, txnFn func(mongo.SessionContext) error) error {
	client := repo.apptColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, txnFn(sc)
	})
	return err
}
