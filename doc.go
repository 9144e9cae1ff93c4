// Package clusterkit implements customer segmentation with k-means
// clustering: loading tabular CSV datasets from local, HTTP, S3 or
// MinIO sources, encoding and scaling feature columns, fitting models,
// sweeping a K range for the elbow, rendering charts, and persisting
// fitted models with their preprocessing pipelines.
//
// The Segmenter type is the main entry point:
//
//	seg, err := clusterkit.New(
//		dataset.SegmentationColumns,
//		clusterkit.WithKRange(1, 10),
//		clusterkit.WithSeed(42),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	_, frame, err := seg.LoadCustomers(ctx, source.NewLocal("Mall_Customers.csv"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sweep, err := seg.SweepK(ctx, frame)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	clustering, err := seg.Fit(ctx, frame, sweep.Knee())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The subpackages are usable on their own: kmeans and elbow operate on
// plain [][]float64 matrices, dataset and preprocess handle tabular
// data, report renders charts, and persistence defines the snapshot
// format.
package clusterkit
