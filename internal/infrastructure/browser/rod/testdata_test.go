package rod

// Test pages served by httptest.
const (
	BasicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
	<h1>Hello World</h1>
</body>
</html>`

	FormHTML = `<!DOCTYPE html>
<html>
<body>
	<form id="contact" action="/sent" method="get">
		<input id="name" type="text" name="name" />
		<input id="email" type="email" name="email" />
		<button id="send" type="submit">Send</button>
	</form>
</body>
</html>`

	SentHTML = `<!DOCTYPE html>
<html>
<body><p>Thank you for your message</p></body>
</html>`

	InteractiveHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="btn">Click Me</button>
	<div id="result"></div>
	<script>
		document.getElementById('btn').addEventListener('click', function() {
			document.getElementById('result').textContent = 'Clicked!';
		});
	</script>
</body>
</html>`

	WideHTML = `<!DOCTYPE html>
<html>
<body style="margin:0">
	<div style="width:2400px;height:600px;background:linear-gradient(90deg,#000,#fff)"></div>
</body>
</html>`
)
