package testutil

// WithStandardPackage adds one model, one pipeline and one resource, the
// model activated.
func (b *PackageBuilder) WithStandardPackage() *PackageBuilder {
	return b.
		WithModel("m1", "m1.tflite", Description("face detector"), Activate("true")).
		WithPipeline("p1", `{"pipeline": "appsrc ! tensor_filter model=m1 ! appsink"}`).
		WithResource("labels", "labels.txt", Description("class labels"))
}
